// Package catalog implements the product and raw material use cases:
// uniqueness of SKUs and codes, stock adjustments, soft and hard deletes and
// bill of materials maintenance.
package catalog

import (
	"errors"
	"fmt"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrRawMaterialNotFound = errors.New("raw material not found")
	ErrSKUAlreadyExists    = errors.New("product SKU already exists")
	ErrCodeAlreadyExists   = errors.New("raw material code already exists")
	ErrRawMaterialInUse    = errors.New("raw material is used by a bill of materials")
)

// IsNotFound reports whether err means the addressed entity does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrRawMaterialNotFound)
}

// IsConflict reports whether err is a uniqueness or referential conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrSKUAlreadyExists) ||
		errors.Is(err, ErrCodeAlreadyExists) ||
		errors.Is(err, ErrRawMaterialInUse)
}

func productErr(err error, id int64) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}
	return err
}

func rawMaterialErr(err error, id int64) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: id %d", ErrRawMaterialNotFound, id)
	case errors.Is(err, repositories.ErrInUse):
		return fmt.Errorf("%w: id %d", ErrRawMaterialInUse, id)
	}
	return err
}

func rawMaterialSaveErr(err error, m *entities.RawMaterial) error {
	if errors.Is(err, repositories.ErrDuplicateKey) {
		return fmt.Errorf("%w: %s", ErrCodeAlreadyExists, m.Code())
	}
	return err
}

func productSaveErr(err error, p *entities.Product) error {
	switch {
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fmt.Errorf("%w: %s", ErrSKUAlreadyExists, p.SKU())
	case errors.Is(err, repositories.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrRawMaterialNotFound, err)
	}
	return err
}
