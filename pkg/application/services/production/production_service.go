// Package production runs planning against a catalog snapshot and records
// each run in logs, metrics and the event log.
package production

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/domain/services"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/logging"
	"github.com/vsinha/prodplan/pkg/infrastructure/metrics"
)

// Result is one planning run
type Result struct {
	RunID           uuid.UUID
	Plan            *entities.ProductionPlan
	Consistency     *services.ConsistencyReport
	SnapshotTakenAt time.Time
	CalculatedAt    time.Time
	Duration        time.Duration
}

// Service loads a snapshot and hands it to the calculator
type Service struct {
	source     repositories.SnapshotSource
	calculator services.PlanCalculator
	publisher  events.Publisher
	metrics    *metrics.PlanningMetrics
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithCalculator(c services.PlanCalculator) Option {
	return func(s *Service) { s.calculator = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.PlanningMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a production service reading from source
func NewService(source repositories.SnapshotSource, opts ...Option) *Service {
	s := &Service{
		source:     source,
		calculator: services.NewProductionCalculator(),
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate plans production from the current active catalog
func (s *Service) Calculate(ctx context.Context) (*Result, error) {
	start := time.Now()
	snapshot, err := s.source.LoadSnapshot(ctx)
	if err != nil {
		s.metrics.ObserveFailure(time.Since(start))
		return nil, fmt.Errorf("loading catalog snapshot: %w", err)
	}
	return s.run(ctx, start, snapshot.Products, snapshot.RawMaterials, snapshot.TakenAt)
}

// CalculateFrom plans production from an explicit catalog, for example one
// read from files. Inactive entries are ignored by the calculator.
func (s *Service) CalculateFrom(ctx context.Context, products []*entities.Product, rawMaterials []*entities.RawMaterial) (*Result, error) {
	start := time.Now()
	return s.run(ctx, start, products, rawMaterials, s.now())
}

func (s *Service) run(ctx context.Context, start time.Time, products []*entities.Product, rawMaterials []*entities.RawMaterial, takenAt time.Time) (*Result, error) {
	runID := uuid.New()
	logger := logging.FromContext(ctx, s.logger).With(zap.String("run_id", runID.String()))

	if err := ctx.Err(); err != nil {
		s.metrics.ObserveFailure(time.Since(start))
		return nil, err
	}

	var report *services.ConsistencyReport
	if products != nil && rawMaterials != nil {
		report = services.CheckCatalogConsistency(products, rawMaterials)
		for _, msg := range report.Messages() {
			logger.Warn("catalog inconsistency", zap.String("issue", msg))
		}
	}

	plan, err := s.calculator.Calculate(products, rawMaterials)
	if err != nil {
		s.metrics.ObserveFailure(time.Since(start))
		logger.Error("production plan failed", zap.Error(err))
		return nil, fmt.Errorf("calculating production plan: %w", err)
	}

	elapsed := time.Since(start)
	result := &Result{
		RunID:           runID,
		Plan:            plan,
		Consistency:     report,
		SnapshotTakenAt: takenAt,
		CalculatedAt:    s.now(),
		Duration:        elapsed,
	}
	items := len(plan.Items())
	s.metrics.ObservePlan(elapsed, items, plan.TotalUnits(), plan.TotalProductionValue())

	logger.Info("production plan calculated",
		zap.Int("products", len(products)),
		zap.Int("raw_materials", len(rawMaterials)),
		zap.Int("items", items),
		zap.Int64("units", plan.TotalUnits()),
		zap.String("total_value", plan.TotalProductionValue().String()),
		zap.Duration("duration", elapsed))

	if s.publisher != nil {
		candidates := 0
		if report != nil {
			candidates = report.CheckedProducts
		}
		event := events.NewEvent(events.PlanCalculatedEvent, "", events.PlanCalculated{
			RunID:         runID,
			Candidates:    candidates,
			Items:         items,
			TotalUnits:    plan.TotalUnits(),
			TotalValue:    plan.TotalProductionValue(),
			Duration:      elapsed,
			SnapshotTaken: takenAt,
		})
		if err := s.publisher.AppendEvent(events.PlanStream(runID), event); err != nil {
			logger.Warn("failed to publish event", zap.String("event_type", event.Type()), zap.Error(err))
		}
	}
	return result, nil
}

// Warnings returns the consistency findings of r as plain messages
func (r *Result) Warnings() []string {
	if r.Consistency == nil {
		return nil
	}
	return r.Consistency.Messages()
}
