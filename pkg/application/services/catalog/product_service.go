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

// BOMLineInput is one requested bill of materials line
type BOMLineInput struct {
	Material        entities.MaterialRef
	QuantityPerUnit decimal.Decimal
}

// ProductInput carries the editable product fields
type ProductInput struct {
	Name          string
	Description   string
	SKU           string
	UnitPrice     decimal.Decimal
	StockQuantity int64          // create only
	Materials     []BOMLineInput // create only
}

// ProductService manages products and their bills of materials
type ProductService struct {
	products     repositories.ProductRepository
	rawMaterials repositories.RawMaterialRepository
	publisher    events.Publisher
	logger       *zap.Logger
}

// NewProductService creates the service. publisher and logger may be nil.
func NewProductService(
	products repositories.ProductRepository,
	rawMaterials repositories.RawMaterialRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:     products,
		rawMaterials: rawMaterials,
		publisher:    publisher,
		logger:       logger,
	}
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*entities.Product, error) {
	sku, err := entities.NormalizeSKU(in.SKU)
	if err != nil {
		return nil, err
	}
	exists, err := s.products.ExistsBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrSKUAlreadyExists, sku)
	}

	p, err := entities.NewProduct(in.Name, in.Description, sku, in.UnitPrice, in.StockQuantity)
	if err != nil {
		return nil, err
	}
	for _, line := range in.Materials {
		if err := s.requireMaterial(ctx, line.Material); err != nil {
			return nil, err
		}
		if err := p.AddMaterial(line.Material, line.QuantityPerUnit); err != nil {
			return nil, err
		}
	}

	saved, err := s.save(ctx, p)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.logger).Info("product created",
		zap.Int64("id", saved.ID().Value()),
		zap.String("sku", saved.SKU()),
		zap.Int("bom_lines", saved.MaterialCount()))
	s.publish(ctx, events.ProductCreatedEvent, saved)
	return saved, nil
}

// Update replaces name, description, SKU and price. Stock and the bill of
// materials have their own operations.
func (s *ProductService) Update(ctx context.Context, id entities.ProductRef, in ProductInput) (*entities.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sku, err := entities.NormalizeSKU(in.SKU)
	if err != nil {
		return nil, err
	}
	if sku != p.SKU() {
		exists, err := s.products.ExistsBySKU(ctx, sku)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrSKUAlreadyExists, sku)
		}
	}
	if err := p.Update(in.Name, in.Description, sku, in.UnitPrice); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, p)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.ProductUpdatedEvent, saved)
	return saved, nil
}

// AdjustStock adds delta finished units, which may be negative
func (s *ProductService) AdjustStock(ctx context.Context, id entities.ProductRef, delta int64) (*entities.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.AdjustStock(delta); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, p)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		appendEvent(ctx, s.publisher, s.logger, events.ProductStream(id.Value()),
			events.NewEvent(events.ProductStockAdjustedEvent, "", events.ProductStockAdjusted{
				ID:       id.Value(),
				Delta:    delta,
				NewStock: saved.StockQuantity(),
			}))
	}
	return saved, nil
}

func (s *ProductService) Deactivate(ctx context.Context, id entities.ProductRef) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	p.Deactivate()
	saved, err := s.save(ctx, p)
	if err != nil {
		return err
	}
	s.publish(ctx, events.ProductDeactivatedEvent, saved)
	return nil
}

// Delete removes a product and its bill of materials permanently
func (s *ProductService) Delete(ctx context.Context, id entities.ProductRef) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return productErr(err, id.Value())
	}
	logging.FromContext(ctx, s.logger).Info("product deleted", zap.Int64("id", id.Value()), zap.String("sku", p.SKU()))
	s.publish(ctx, events.ProductDeletedEvent, p)
	return nil
}

func (s *ProductService) Get(ctx context.Context, id entities.ProductRef) (*entities.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, productErr(err, id.Value())
	}
	return p, nil
}

func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*entities.Product, error) {
	normalized, err := entities.NormalizeSKU(sku)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindBySKU(ctx, normalized)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("%w: sku %s", ErrProductNotFound, normalized)
	}
	return p, err
}

func (s *ProductService) ListActive(ctx context.Context) ([]*entities.Product, error) {
	return s.products.FindAllActive(ctx)
}

func (s *ProductService) ListAll(ctx context.Context) ([]*entities.Product, error) {
	return s.products.FindAll(ctx)
}

func (s *ProductService) Search(ctx context.Context, fragment string) ([]*entities.Product, error) {
	return s.products.FindByNameContaining(ctx, fragment)
}

// Materials returns the product's bill of materials in insertion order
func (s *ProductService) Materials(ctx context.Context, id entities.ProductRef) ([]entities.BillOfMaterialLine, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Materials(), nil
}

// AddMaterial appends a line for an existing raw material
func (s *ProductService) AddMaterial(ctx context.Context, id entities.ProductRef, material entities.MaterialRef, qty decimal.Decimal) (*entities.Product, error) {
	return s.changeBOM(ctx, id, material, "added", qty, func(p *entities.Product) error {
		if err := s.requireMaterial(ctx, material); err != nil {
			return err
		}
		return p.AddMaterial(material, qty)
	})
}

func (s *ProductService) UpdateMaterialQuantity(ctx context.Context, id entities.ProductRef, material entities.MaterialRef, qty decimal.Decimal) (*entities.Product, error) {
	return s.changeBOM(ctx, id, material, "updated", qty, func(p *entities.Product) error {
		return p.UpdateMaterialQuantity(material, qty)
	})
}

func (s *ProductService) RemoveMaterial(ctx context.Context, id entities.ProductRef, material entities.MaterialRef) (*entities.Product, error) {
	return s.changeBOM(ctx, id, material, "removed", decimal.Zero, func(p *entities.Product) error {
		return p.RemoveMaterial(material)
	})
}

func (s *ProductService) changeBOM(
	ctx context.Context,
	id entities.ProductRef,
	material entities.MaterialRef,
	change string,
	qty decimal.Decimal,
	mutate func(*entities.Product) error,
) (*entities.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	saved, err := s.save(ctx, p)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx, s.logger).Debug("bill of materials changed",
		zap.Int64("product_id", id.Value()),
		zap.Int64("material_id", material.Value()),
		zap.String("change", change))
	if s.publisher != nil {
		appendEvent(ctx, s.publisher, s.logger, events.ProductStream(id.Value()),
			events.NewEvent(events.ProductBOMChangedEvent, "", events.ProductBOMChanged{
				ProductID:       id.Value(),
				MaterialID:      material.Value(),
				Change:          change,
				QuantityPerUnit: qty,
			}))
	}
	return saved, nil
}

func (s *ProductService) requireMaterial(ctx context.Context, ref entities.MaterialRef) error {
	if _, err := s.rawMaterials.FindByID(ctx, ref); err != nil {
		return rawMaterialErr(err, ref.Value())
	}
	return nil
}

func (s *ProductService) save(ctx context.Context, p *entities.Product) (*entities.Product, error) {
	saved, err := s.products.Save(ctx, p)
	if err != nil {
		// ErrNotFound here means a BOM material vanished after the check
		return nil, productSaveErr(err, p)
	}
	return saved, nil
}

func (s *ProductService) publish(ctx context.Context, eventType string, p *entities.Product) {
	if s.publisher == nil {
		return
	}
	appendEvent(ctx, s.publisher, s.logger, events.ProductStream(p.ID().Value()), events.NewEvent(eventType, "", events.ProductChanged{
		ID:        p.ID().Value(),
		SKU:       p.SKU(),
		UnitPrice: p.UnitPrice(),
		Active:    p.IsActive(),
	}))
}
