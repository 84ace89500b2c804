package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"finanzas/internal/loan"
	"finanzas/internal/log"
)

const maxSimulationName = 100

type SimulationService struct {
	store  SimulationStore
	logger *log.Logger
}

func NewSimulationService(store SimulationStore, logger *log.Logger) *SimulationService {
	if logger == nil {
		logger = log.Discard()
	}
	return &SimulationService{store: store, logger: logger.WithComponent(log.ComponentLoan)}
}

func (s *SimulationService) Simulate(ctx context.Context, principal, annualRatePercent float64, termMonths int) (loan.Simulation, error) {
	sim, err := loan.Simulate(principal, annualRatePercent, termMonths)
	if err != nil {
		s.logger.DebugContext(ctx, "Rejected loan parameters",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpSimulate)
		return loan.Simulation{}, err
	}
	s.logger.DebugContext(ctx, "Loan simulated",
		log.NewFields().
			WithLoan(sim.Principal.String(), sim.AnnualRatePercent.String(), sim.TermMonths).
			WithOperation(log.OpSimulate).
			ToSlice()...)
	return sim, nil
}

// Save recomputes the simulation server side and stores its headline figures.
func (s *SimulationService) Save(ctx context.Context, ownerID, name string, principal, annualRatePercent float64, termMonths int) (loan.Saved, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxSimulationName {
		return loan.Saved{}, &loan.ValidationError{Field: "name", Value: name, Reason: fmt.Sprintf("must be at most %d characters", maxSimulationName)}
	}
	sim, err := s.Simulate(ctx, principal, annualRatePercent, termMonths)
	if err != nil {
		return loan.Saved{}, err
	}

	saved, err := s.store.SaveSimulation(ctx, loan.Saved{
		OwnerID:           ownerID,
		Name:              name,
		Principal:         sim.Principal,
		AnnualRatePercent: sim.AnnualRatePercent,
		TermMonths:        sim.TermMonths,
		MonthlyPayment:    sim.MonthlyPayment,
		TotalInterest:     sim.TotalInterest,
	})
	if err != nil {
		return loan.Saved{}, fmt.Errorf("save simulation: %w", err)
	}
	s.logger.InfoContext(ctx, "Loan simulation saved",
		log.FieldOwnerID, ownerID,
		"simulation_id", saved.ID,
		log.FieldOperation, log.OpCreate)
	return saved, nil
}

func (s *SimulationService) List(ctx context.Context, ownerID string) ([]loan.Saved, error) {
	out, err := s.store.ListSimulations(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	return out, nil
}

func (s *SimulationService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteSimulation(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete simulation %s: %w", id, err)
	}
	return nil
}
