package memory

import (
	"context"
	"sync"

	"finanzas/internal/core"
	"finanzas/internal/sheets"
)

// Sheet is an in-memory mirror used when no spreadsheet is configured and in
// tests. It keeps rows in insertion order like a real sheet does.
type Sheet struct {
	mu   sync.Mutex
	rows [][]any
}

var _ sheets.RowWriter = (*Sheet)(nil)

func New() *Sheet {
	return &Sheet{}
}

func (s *Sheet) Upsert(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := sheets.Row(tx)
	if i := s.indexOf(tx.ID); i >= 0 {
		s.rows[i] = row
		return nil
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *Sheet) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	return nil
}

// Rows returns a copy of the current rows, header excluded.
func (s *Sheet) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

func (s *Sheet) indexOf(id string) int {
	for i, r := range s.rows {
		if len(r) > 0 && r[0] == id {
			return i
		}
	}
	return -1
}
