package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/events"
	"github.com/vsinha/prodplan/pkg/infrastructure/logging"
)

// RawMaterialInput carries the editable raw material fields
type RawMaterialInput struct {
	Name          string
	Description   string
	Code          string
	Unit          entities.MeasurementUnit
	StockQuantity decimal.Decimal // create only
	UnitCost      decimal.Decimal
}

// RawMaterialService manages raw material master data
type RawMaterialService struct {
	repo      repositories.RawMaterialRepository
	publisher events.Publisher
	logger    *zap.Logger
}

// NewRawMaterialService creates the service. publisher and logger may be nil.
func NewRawMaterialService(repo repositories.RawMaterialRepository, publisher events.Publisher, logger *zap.Logger) *RawMaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RawMaterialService{repo: repo, publisher: publisher, logger: logger}
}

func (s *RawMaterialService) Create(ctx context.Context, in RawMaterialInput) (*entities.RawMaterial, error) {
	code, err := entities.NormalizeCode(in.Code)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrCodeAlreadyExists, code)
	}

	m, err := entities.NewRawMaterial(in.Name, in.Description, code, in.Unit, in.StockQuantity, in.UnitCost)
	if err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, m)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("raw material created",
		zap.Int64("id", saved.ID().Value()),
		zap.String("code", saved.Code()))
	s.publish(ctx, events.RawMaterialCreatedEvent, saved)
	return saved, nil
}

func (s *RawMaterialService) Update(ctx context.Context, id entities.MaterialRef, in RawMaterialInput) (*entities.RawMaterial, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	code, err := entities.NormalizeCode(in.Code)
	if err != nil {
		return nil, err
	}
	if code != m.Code() {
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrCodeAlreadyExists, code)
		}
	}
	if err := m.Update(in.Name, in.Description, code, in.Unit, in.UnitCost); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, m)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.RawMaterialUpdatedEvent, saved)
	return saved, nil
}

// AdjustStock adds delta, which may be negative, to the stock on hand
func (s *RawMaterialService) AdjustStock(ctx context.Context, id entities.MaterialRef, delta decimal.Decimal) (*entities.RawMaterial, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.AdjustStock(delta); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, m)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Info("raw material stock adjusted",
		zap.Int64("id", id.Value()),
		zap.String("delta", delta.String()),
		zap.String("stock", saved.StockQuantity().String()))
	if s.publisher != nil {
		s.append(ctx, events.RawMaterialStream(id.Value()), events.NewEvent(events.RawMaterialStockAdjustedEvent, "", events.RawMaterialStockAdjusted{
			ID:       id.Value(),
			Delta:    delta,
			NewStock: saved.StockQuantity(),
		}))
	}
	return saved, nil
}

// Deactivate hides a raw material from planning without deleting it
func (s *RawMaterialService) Deactivate(ctx context.Context, id entities.MaterialRef) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	m.Deactivate()
	saved, err := s.save(ctx, m)
	if err != nil {
		return err
	}
	s.publish(ctx, events.RawMaterialDeactivatedEvent, saved)
	return nil
}

// Delete removes a raw material permanently. Materials still referenced by a
// bill of materials are refused with ErrRawMaterialInUse.
func (s *RawMaterialService) Delete(ctx context.Context, id entities.MaterialRef) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return rawMaterialErr(err, id.Value())
	}
	logging.FromContext(ctx, s.logger).Info("raw material deleted", zap.Int64("id", id.Value()))
	s.publish(ctx, events.RawMaterialDeletedEvent, m)
	return nil
}

func (s *RawMaterialService) Get(ctx context.Context, id entities.MaterialRef) (*entities.RawMaterial, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, rawMaterialErr(err, id.Value())
	}
	return m, nil
}

func (s *RawMaterialService) GetByCode(ctx context.Context, code string) (*entities.RawMaterial, error) {
	normalized, err := entities.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	m, err := s.repo.FindByCode(ctx, normalized)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: code %s", ErrRawMaterialNotFound, normalized)
	}
	return m, err
}

func (s *RawMaterialService) ListActive(ctx context.Context) ([]*entities.RawMaterial, error) {
	return s.repo.FindAllActive(ctx)
}

func (s *RawMaterialService) ListAll(ctx context.Context) ([]*entities.RawMaterial, error) {
	return s.repo.FindAll(ctx)
}

// Search matches name fragments case-insensitively
func (s *RawMaterialService) Search(ctx context.Context, fragment string) ([]*entities.RawMaterial, error) {
	return s.repo.FindByNameContaining(ctx, fragment)
}

func (s *RawMaterialService) save(ctx context.Context, m *entities.RawMaterial) (*entities.RawMaterial, error) {
	saved, err := s.repo.Save(ctx, m)
	if err != nil {
		return nil, rawMaterialSaveErr(err, m)
	}
	return saved, nil
}

func (s *RawMaterialService) publish(ctx context.Context, eventType string, m *entities.RawMaterial) {
	if s.publisher == nil {
		return
	}
	s.append(ctx, events.RawMaterialStream(m.ID().Value()), events.NewEvent(eventType, "", events.RawMaterialChanged{
		ID:            m.ID().Value(),
		Code:          m.Code(),
		StockQuantity: m.StockQuantity(),
		Active:        m.IsActive(),
	}))
}

func (s *RawMaterialService) append(ctx context.Context, stream string, event events.Event) {
	appendEvent(ctx, s.publisher, s.logger, stream, event)
}

// appendEvent records event after the change is already stored, so a failing
// subscriber is logged rather than returned
func appendEvent(ctx context.Context, publisher events.Publisher, logger *zap.Logger, stream string, event events.Event) {
	if err := publisher.AppendEvent(stream, event); err != nil {
		logging.FromContext(ctx, logger).Warn("failed to publish event",
			zap.String("event_type", event.Type()),
			zap.String("stream_id", stream),
			zap.Error(err))
	}
}
