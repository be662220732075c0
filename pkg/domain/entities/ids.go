package entities

import (
	"fmt"
	"strconv"
)

// ProductRef identifies a product. The zero value means the product has not
// been assigned an identifier by storage yet.
type ProductRef struct {
	value int64
}

// NewProductRef creates a validated ProductRef
func NewProductRef(value int64) (ProductRef, error) {
	if value <= 0 {
		return ProductRef{}, fmt.Errorf("%w: product id must be positive, got %d", ErrInvalidIdentifier, value)
	}
	return ProductRef{value: value}, nil
}

// MustProductRef is NewProductRef that panics on invalid input.
// Use only with literal values known to be valid.
func MustProductRef(value int64) ProductRef {
	ref, err := NewProductRef(value)
	if err != nil {
		panic(err)
	}
	return ref
}

// Value returns the underlying integer identity
func (r ProductRef) Value() int64 { return r.value }

// IsZero reports whether the reference is unassigned
func (r ProductRef) IsZero() bool { return r.value == 0 }

func (r ProductRef) String() string {
	return "ProductRef(" + strconv.FormatInt(r.value, 10) + ")"
}

// MaterialRef identifies a raw material. The zero value means the material has
// not been assigned an identifier by storage yet.
type MaterialRef struct {
	value int64
}

// NewMaterialRef creates a validated MaterialRef
func NewMaterialRef(value int64) (MaterialRef, error) {
	if value <= 0 {
		return MaterialRef{}, fmt.Errorf("%w: raw material id must be positive, got %d", ErrInvalidIdentifier, value)
	}
	return MaterialRef{value: value}, nil
}

// MustMaterialRef is NewMaterialRef that panics on invalid input.
// Use only with literal values known to be valid.
func MustMaterialRef(value int64) MaterialRef {
	ref, err := NewMaterialRef(value)
	if err != nil {
		panic(err)
	}
	return ref
}

// Value returns the underlying integer identity
func (r MaterialRef) Value() int64 { return r.value }

// IsZero reports whether the reference is unassigned
func (r MaterialRef) IsZero() bool { return r.value == 0 }

func (r MaterialRef) String() string {
	return "MaterialRef(" + strconv.FormatInt(r.value, 10) + ")"
}
