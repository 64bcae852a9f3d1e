package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gophercalc/internal/observability"
	"gophercalc/internal/pkg/operations"
)

func newTestCalculationService() (*CalculationService, *fakeCalculationStore, *fakeHistoryCache) {
	store := newFakeCalculationStore()
	history := newFakeHistoryCache()
	svc := NewCalculationService(store, history, quietLogger(), observability.NewMetrics(prometheus.NewRegistry()))
	return svc, store, history
}

func floatPtr(f float64) *float64 { return &f }

func strPtr(s string) *string { return &s }

func TestCalculationCreate(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	tests := []struct {
		op   string
		a, b float64
		want float64
	}{
		{"add", 2, 3, 5},
		{"subtract", 2, 3, -1},
		{"multiply", 2.5, 4, 10},
		{"divide", 10, 4, 2.5},
	}
	for _, tt := range tests {
		calc, err := svc.Create(ctx, 1, CalculationInput{A: tt.a, B: tt.b, Type: tt.op})
		require.NoError(t, err, tt.op)
		assert.Equal(t, tt.want, calc.Result, tt.op)
		assert.NotZero(t, calc.ID, tt.op)
		assert.Equal(t, uint(1), calc.UserID)
	}
}

func TestCalculationCreateDivisionByZero(t *testing.T) {
	svc, store, _ := newTestCalculationService()

	_, err := svc.Create(context.Background(), 1, CalculationInput{A: 5, B: 0, Type: "divide"})
	assert.ErrorIs(t, err, operations.ErrDivisionByZero)

	calcs, err := store.ListByUserID(context.Background(), 1, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, calcs, "nothing is stored when the operation fails")
}

func TestCalculationCreateUnknownType(t *testing.T) {
	svc, _, _ := newTestCalculationService()

	_, err := svc.Create(context.Background(), 1, CalculationInput{A: 5, B: 2, Type: "modulo"})
	assert.ErrorIs(t, err, operations.ErrUnknownOperation)
}

func TestCalculationListDefaultPageUsesCache(t *testing.T) {
	svc, store, history := newTestCalculationService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CalculationInput{A: 1, B: 1, Type: "add"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, 1, CalculationInput{A: 9, B: 3, Type: "divide"})
	require.NoError(t, err)

	first, err := svc.List(ctx, 1, 0, DefaultHistoryLimit)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, second.ID, first[0].ID, "newest first")
	assert.Equal(t, 1, history.sets, "miss populates the cache")

	// Deleting behind the service's back proves the next default-page
	// read comes from the cache, not the store.
	store.remove(second.ID)

	again, err := svc.List(ctx, 1, 0, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestCalculationListOtherPagesSkipCache(t *testing.T) {
	svc, _, history := newTestCalculationService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CalculationInput{A: 1, B: 1, Type: "add"})
	require.NoError(t, err)

	_, err = svc.List(ctx, 1, 0, 10)
	require.NoError(t, err)
	_, err = svc.List(ctx, 1, 5, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Zero(t, history.sets, "non-default pages never populate the cache")
}

func TestCalculationListClampsLimit(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CalculationInput{A: 1, B: 1, Type: "add"})
	require.NoError(t, err)

	// Absurd limits are clamped rather than rejected.
	calcs, err := svc.List(ctx, 1, 0, 100000)
	require.NoError(t, err)
	assert.Len(t, calcs, 1)

	calcs, err = svc.List(ctx, 1, -5, 0)
	require.NoError(t, err)
	assert.Len(t, calcs, 1)
}

func TestCalculationWritesInvalidateCache(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, CalculationInput{A: 1, B: 1, Type: "add"})
	require.NoError(t, err)

	_, err = svc.List(ctx, 1, 0, DefaultHistoryLimit)
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, created.ID, CalculationUpdateInput{A: floatPtr(10)})
	require.NoError(t, err)

	fresh, err := svc.List(ctx, 1, 0, DefaultHistoryLimit)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, float64(11), fresh[0].Result, "update is visible on the next read")
}

func TestCalculationGetScopedToOwner(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	calc, err := svc.Create(ctx, 1, CalculationInput{A: 2, B: 3, Type: "add"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, 1, calc.ID)
	require.NoError(t, err)
	assert.Equal(t, calc.ID, got.ID)

	_, err = svc.Get(ctx, 2, calc.ID)
	assert.ErrorIs(t, err, ErrCalculationNotFound, "another user's id behaves like a missing record")
}

func TestCalculationListScopedToOwner(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, CalculationInput{A: 2, B: 3, Type: "add"})
	require.NoError(t, err)

	mine, err := svc.List(ctx, 1, 0, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.List(ctx, 2, 0, DefaultHistoryLimit)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestCalculationUpdateRecomputes(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	calc, err := svc.Create(ctx, 1, CalculationInput{A: 2, B: 3, Type: "add"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, calc.ID, CalculationUpdateInput{
		A:    floatPtr(10),
		B:    floatPtr(4),
		Type: strPtr("divide"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2.5, updated.Result)

	// Partial update keeps the other operands.
	updated, err = svc.Update(ctx, 1, calc.ID, CalculationUpdateInput{B: floatPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, float64(2), updated.Result)
}

func TestCalculationUpdateNoFields(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	calc, err := svc.Create(ctx, 1, CalculationInput{A: 2, B: 3, Type: "add"})
	require.NoError(t, err)

	same, err := svc.Update(ctx, 1, calc.ID, CalculationUpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, calc.Result, same.Result)
}

func TestCalculationUpdateDivisionByZero(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	calc, err := svc.Create(ctx, 1, CalculationInput{A: 10, B: 4, Type: "divide"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, calc.ID, CalculationUpdateInput{B: floatPtr(0)})
	assert.ErrorIs(t, err, operations.ErrDivisionByZero)

	// The stored record is untouched.
	got, err := svc.Get(ctx, 1, calc.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Result)
}

func TestCalculationDelete(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	calc, err := svc.Create(ctx, 1, CalculationInput{A: 2, B: 3, Type: "add"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, 1, calc.ID))

	_, err = svc.Get(ctx, 1, calc.ID)
	assert.ErrorIs(t, err, ErrCalculationNotFound)

	err = svc.Delete(ctx, 1, calc.ID)
	assert.ErrorIs(t, err, ErrCalculationNotFound)
}

func TestCalculationDeleteScopedToOwner(t *testing.T) {
	svc, _, _ := newTestCalculationService()
	ctx := context.Background()

	calc, err := svc.Create(ctx, 1, CalculationInput{A: 2, B: 3, Type: "add"})
	require.NoError(t, err)

	err = svc.Delete(ctx, 2, calc.ID)
	assert.ErrorIs(t, err, ErrCalculationNotFound)

	// Still there for the owner.
	_, err = svc.Get(ctx, 1, calc.ID)
	assert.NoError(t, err)
}
