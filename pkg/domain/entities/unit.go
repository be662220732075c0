package entities

import (
	"fmt"
	"strings"
)

// MeasurementUnit is the unit a raw material's stock is counted in. It is
// used for display only; allocation arithmetic assumes one consistent unit per
// material.
type MeasurementUnit int

const (
	Kilogram MeasurementUnit = iota + 1
	Gram
	Liter
	Milliliter
	Meter
	Centimeter
	Unit
	Piece
	Pair
	Box
	Roll
	Sheet
)

type unitInfo struct {
	name         string
	abbreviation string
	displayName  string
}

var unitTable = map[MeasurementUnit]unitInfo{
	Kilogram:   {"KILOGRAM", "kg", "Kilogram"},
	Gram:       {"GRAM", "g", "Gram"},
	Liter:      {"LITER", "L", "Liter"},
	Milliliter: {"MILLILITER", "mL", "Milliliter"},
	Meter:      {"METER", "m", "Meter"},
	Centimeter: {"CENTIMETER", "cm", "Centimeter"},
	Unit:       {"UNIT", "un", "Unit"},
	Piece:      {"PIECE", "pc", "Piece"},
	Pair:       {"PAIR", "pr", "Pair"},
	Box:        {"BOX", "box", "Box"},
	Roll:       {"ROLL", "roll", "Roll"},
	Sheet:      {"SHEET", "sheet", "Sheet"},
}

// MeasurementUnits returns every unit in declaration order
func MeasurementUnits() []MeasurementUnit {
	return []MeasurementUnit{
		Kilogram, Gram, Liter, Milliliter, Meter, Centimeter,
		Unit, Piece, Pair, Box, Roll, Sheet,
	}
}

// IsValid reports whether u is one of the declared units
func (u MeasurementUnit) IsValid() bool {
	_, ok := unitTable[u]
	return ok
}

// Abbreviation returns the short symbol, e.g. "kg"
func (u MeasurementUnit) Abbreviation() string {
	return unitTable[u].abbreviation
}

// DisplayName returns the human readable name, e.g. "Kilogram"
func (u MeasurementUnit) DisplayName() string {
	return unitTable[u].displayName
}

// String method for MeasurementUnit enum
func (u MeasurementUnit) String() string {
	if info, ok := unitTable[u]; ok {
		return info.name
	}
	return "Unknown"
}

// ParseMeasurementUnit resolves a unit from its abbreviation or its name,
// ignoring case and surrounding whitespace.
func ParseMeasurementUnit(s string) (MeasurementUnit, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: unit cannot be empty", ErrInvalidUnit)
	}
	for _, u := range MeasurementUnits() {
		info := unitTable[u]
		if strings.EqualFold(info.abbreviation, trimmed) || strings.EqualFold(info.name, trimmed) {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidUnit, s)
}

// MarshalText encodes the unit by name so it round-trips through JSON and YAML
func (u MeasurementUnit) MarshalText() ([]byte, error) {
	if !u.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUnit, int(u))
	}
	return []byte(u.String()), nil
}

// UnmarshalText accepts either a name or an abbreviation
func (u *MeasurementUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseMeasurementUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
