package entities

import "errors"

// Precondition errors returned by entity constructors, mutators and the
// production calculator. Callers match them with errors.Is; the concrete error
// carries the offending value in its message.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrNegativeStock     = errors.New("stock cannot go below zero")
	ErrDuplicateMaterial = errors.New("material already in bill of materials")
	ErrMaterialNotInBom  = errors.New("material not in bill of materials")
	ErrInvalidInput      = errors.New("invalid input")

	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidCode     = errors.New("invalid code")
	ErrInvalidSKU      = errors.New("invalid sku")
	ErrInvalidPrice    = errors.New("invalid unit price")
	ErrInvalidUnitCost = errors.New("invalid unit cost")
	ErrInvalidUnit     = errors.New("invalid measurement unit")
)

// IsValidationError reports whether err stems from a violated entity
// invariant, as opposed to a storage or transport failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrInvalidIdentifier,
		ErrInvalidQuantity,
		ErrNegativeStock,
		ErrDuplicateMaterial,
		ErrMaterialNotInBom,
		ErrInvalidInput,
		ErrInvalidName,
		ErrInvalidCode,
		ErrInvalidSKU,
		ErrInvalidPrice,
		ErrInvalidUnitCost,
		ErrInvalidUnit,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
