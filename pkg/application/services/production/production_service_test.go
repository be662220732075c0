package production

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/catalogtest"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/metrics"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

func TestService_Calculate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)
	f := catalogtest.SeedFurniture(t, store)

	eventStore := events.NewInMemoryEventStore(nil)
	planningMetrics := metrics.NewPlanningMetrics(nil)
	core, logs := observer.New(zapcore.InfoLevel)

	svc := NewService(store,
		WithPublisher(eventStore),
		WithMetrics(planningMetrics),
		WithLogger(zap.New(core)),
	)

	result, err := svc.Calculate(ctx)
	require.NoError(t, err)

	items := result.Plan.Items()
	require.Len(t, items, 2)
	assert.Equal(t, f.Table.ID(), items[0].ProductRef)
	assert.Equal(t, int64(6), items[0].Quantity)
	assert.Equal(t, f.Stool.ID(), items[1].ProductRef)
	assert.Equal(t, int64(1), items[1].Quantity)
	assert.Equal(t, "2745", result.Plan.TotalProductionValue().String())

	wood, ok := result.Plan.Remaining(f.Wood.ID())
	require.True(t, ok)
	assert.Equal(t, "0.5", wood.String())
	_, ok = result.Plan.Remaining(f.Fabric.ID())
	assert.False(t, ok, "inactive materials are not in the snapshot")

	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.False(t, result.SnapshotTakenAt.IsZero())
	assert.Empty(t, result.Warnings())

	assert.Equal(t, 1.0, testutil.ToFloat64(planningMetrics.Runs.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 2745.0, testutil.ToFloat64(planningMetrics.TotalValue))

	stream, err := eventStore.ReadEvents(events.PlanStream(result.RunID), 1)
	require.NoError(t, err)
	require.Len(t, stream, 1)
	payload := stream[0].Data().(events.PlanCalculated)
	assert.Equal(t, 3, payload.Candidates)
	assert.Equal(t, int64(7), payload.TotalUnits)

	planned := logs.FilterMessage("production plan calculated").All()
	require.Len(t, planned, 1)
	assert.Equal(t, result.RunID.String(), planned[0].ContextMap()["run_id"])
	assert.Equal(t, "2745", planned[0].ContextMap()["total_value"])
}

func TestService_CalculateReportsInconsistencies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(0)
	f := catalogtest.SeedFurniture(t, store)

	lonely := catalogtest.MustProduct(t, "Picture frame", "FRM-1", "15")
	_, err := store.Products().Save(ctx, lonely)
	require.NoError(t, err)

	chair, err := store.Products().FindByID(ctx, f.Chair.ID())
	require.NoError(t, err)
	require.NoError(t, chair.AddMaterial(f.Fabric.ID(), decimal.RequireFromString("0.5")))
	_, err = store.Products().Save(ctx, chair)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	result, err := NewService(store, WithLogger(zap.New(core))).Calculate(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"product CHR-200 references unknown raw material 4",
		"product FRM-1 has no bill of materials",
	}, result.Warnings(), "inactive materials are absent from the snapshot")
	assert.Equal(t, 2, logs.FilterMessage("catalog inconsistency").Len())
	assert.Equal(t, "2745", result.Plan.TotalProductionValue().String(), "findings never change the plan")
}

func TestService_CalculateFrom(t *testing.T) {
	steel := catalogtest.MustRawMaterial(t, "Steel", "STL", entities.Kilogram, "10", "1").WithID(entities.MustMaterialRef(1))
	beam := catalogtest.MustProduct(t, "Beam", "BEAM", "100", steel, "4").WithID(entities.MustProductRef(1))

	result, err := NewService(nil).CalculateFrom(context.Background(), []*entities.Product{beam}, []*entities.RawMaterial{steel})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Plan.TotalUnits())
	assert.Equal(t, "200", result.Plan.TotalProductionValue().String())
}

func TestService_CalculateFromNilInput(t *testing.T) {
	planningMetrics := metrics.NewPlanningMetrics(nil)
	_, err := NewService(nil, WithMetrics(planningMetrics)).CalculateFrom(context.Background(), nil, []*entities.RawMaterial{})
	assert.ErrorIs(t, err, entities.ErrInvalidInput)
	assert.Equal(t, 1.0, testutil.ToFloat64(planningMetrics.Runs.WithLabelValues(metrics.OutcomeError)))
}

type failingSource struct{ err error }

func (f failingSource) LoadSnapshot(context.Context) (*repositories.Snapshot, error) { return nil, f.err }

func TestService_SnapshotFailure(t *testing.T) {
	boom := errors.New("db unavailable")
	planningMetrics := metrics.NewPlanningMetrics(nil)
	_, err := NewService(failingSource{boom}, WithMetrics(planningMetrics)).Calculate(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, testutil.ToFloat64(planningMetrics.Runs.WithLabelValues(metrics.OutcomeError)))
}

func TestService_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(memory.NewStore(0)).Calculate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type stubCalculator struct{ calls int }

func (s *stubCalculator) Calculate([]*entities.Product, []*entities.RawMaterial) (*entities.ProductionPlan, error) {
	s.calls++
	return entities.NewProductionPlan(nil, nil)
}

func TestService_CustomCalculator(t *testing.T) {
	stub := &stubCalculator{}
	planningMetrics := metrics.NewPlanningMetrics(nil)
	svc := NewService(memory.NewStore(0), WithCalculator(stub), WithMetrics(planningMetrics))
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	result, err := svc.Calculate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.False(t, result.Plan.HasProduction())
	assert.Equal(t, 2026, result.CalculatedAt.Year())
	assert.Equal(t, 1.0, testutil.ToFloat64(planningMetrics.Runs.WithLabelValues(metrics.OutcomeEmpty)))
}
