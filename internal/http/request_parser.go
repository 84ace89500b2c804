// Package http provides HTTP server and handler implementations.
//
// This file parses query parameters and JSON bodies into domain values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// Period is an inclusive date range; zero bounds are open.
type Period struct {
	From core.Date
	To   core.Date
}

// ParsePeriod reads the optional from and to query parameters.
func ParsePeriod(query url.Values) (Period, error) {
	var p Period
	var err error
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		if p.From, err = core.ParseDate(v); err != nil {
			return Period{}, err
		}
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		if p.To, err = core.ParseDate(v); err != nil {
			return Period{}, err
		}
	}
	if !p.From.IsZero() && !p.To.IsZero() && p.From.After(p.To) {
		return Period{}, fmt.Errorf("%w: from %s is after to %s", core.ErrInvalidDate, p.From, p.To)
	}
	return p, nil
}

// ParseKindParam reads the optional kind query parameter.
func ParseKindParam(query url.Values) (core.Kind, error) {
	v := strings.TrimSpace(query.Get("kind"))
	if v == "" {
		return "", nil
	}
	return core.ParseKind(v)
}

// ParseFilter combines kind and period into a store filter.
func ParseFilter(query url.Values) (ledger.Filter, error) {
	kind, err := ParseKindParam(query)
	if err != nil {
		return ledger.Filter{}, err
	}
	p, err := ParsePeriod(query)
	if err != nil {
		return ledger.Filter{}, err
	}
	return ledger.Filter{Kind: kind, From: p.From, To: p.To}, nil
}

// DecodeJSON reads a single JSON value from the body into v. Oversized,
// empty or malformed bodies wrap errBadRequest.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBodyBytes)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case core.IsValidationError(err):
			return err
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}
