package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/ledger"
	"finanzas/internal/loan"
	"finanzas/internal/services"
	mock_services "finanzas/internal/services/mocks"
)

func TestSimulationService_Save(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockSimulationStore(ctrl)
	svc := services.NewSimulationService(store, nil)

	store.EXPECT().
		SaveSimulation(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, s loan.Saved) (loan.Saved, error) {
			assert.Equal(t, "alice", s.OwnerID)
			assert.Equal(t, "Hipoteca", s.Name)
			assert.Equal(t, 12, s.TermMonths)
			assert.Equal(t, "9455.96", s.MonthlyPayment.StringFixed(2))
			assert.Equal(t, "13471.52", s.TotalInterest.StringFixed(2))
			s.ID = "sim-1"
			return s, nil
		})

	saved, err := svc.Save(context.Background(), "alice", " Hipoteca ", 100000, 24, 12)
	require.NoError(t, err)
	assert.Equal(t, "sim-1", saved.ID)
}

func TestSimulationService_SaveRejectsBeforeStoring(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockSimulationStore(ctrl)
	svc := services.NewSimulationService(store, nil)

	_, err := svc.Save(context.Background(), "alice", "x", 100, 150, 12)
	assert.ErrorIs(t, err, loan.ErrValidation)

	_, err = svc.Save(context.Background(), "alice", strings.Repeat("n", 101), 100, 5, 12)
	var verr *loan.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "name", verr.Field)
}

func TestSimulationService_ListAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_services.NewMockSimulationStore(ctrl)
	svc := services.NewSimulationService(store, nil)

	store.EXPECT().ListSimulations(gomock.Any(), "alice").Return([]loan.Saved{{ID: "a"}, {ID: "b"}}, nil)
	store.EXPECT().DeleteSimulation(gomock.Any(), "alice", "zzz").Return(ledger.ErrNotFound)

	list, err := svc.List(context.Background(), "alice")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.ErrorIs(t, svc.Delete(context.Background(), "alice", "zzz"), ledger.ErrNotFound)
}

func TestSimulationService_Simulate(t *testing.T) {
	svc := services.NewSimulationService(nil, nil)

	sim, err := svc.Simulate(context.Background(), 12000, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, "1000", sim.MonthlyPayment.String())
	assert.Len(t, sim.Schedule, 12)

	_, err = svc.Simulate(context.Background(), -1, 5, 12)
	assert.ErrorIs(t, err, loan.ErrValidation)
}
