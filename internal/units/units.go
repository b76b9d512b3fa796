// Package units converts lengths and areas between the units used by
// measurement labels.
package units

import (
	"fmt"
	"strings"
)

// Length is a length unit symbol.
type Length string

// Area is an area unit symbol.
type Area string

// Length units. The base unit is M.
const (
	MM Length = "MM"
	CM Length = "CM"
	M  Length = "M"
	KM Length = "KM"
)

// Area units. The base unit is M2.
const (
	M2  Area = "M2"
	KM2 Area = "KM2"
	MU  Area = "MU"
)

// SquareMetersPerMu is the size of one mu (亩).
const SquareMetersPerMu = 666.67

// UnsupportedUnitError is returned for an unknown unit symbol or for a
// conversion between a length and an area unit.
type UnsupportedUnitError struct {
	Unit string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported unit conversion: %s", e.Unit)
}

// LengthToBase converts v expressed in u to meters.
func LengthToBase(v float64, u Length) (float64, error) {
	switch u {
	case KM:
		return v * 1000, nil
	case M:
		return v, nil
	case CM:
		return v / 100, nil
	case MM:
		return v / 1000, nil
	default:
		return 0, &UnsupportedUnitError{Unit: string(u)}
	}
}

// LengthBaseTo converts v meters to u.
func LengthBaseTo(v float64, u Length) (float64, error) {
	switch u {
	case KM:
		return v / 1000, nil
	case M:
		return v, nil
	case CM:
		return v * 100, nil
	case MM:
		return v * 1000, nil
	default:
		return 0, &UnsupportedUnitError{Unit: string(u)}
	}
}

// AreaToBase converts v expressed in u to square meters.
func AreaToBase(v float64, u Area) (float64, error) {
	switch u {
	case KM2:
		return v * 1000000, nil
	case MU:
		return v * SquareMetersPerMu, nil
	case M2:
		return v, nil
	default:
		return 0, &UnsupportedUnitError{Unit: string(u)}
	}
}

// AreaBaseTo converts v square meters to u.
func AreaBaseTo(v float64, u Area) (float64, error) {
	switch u {
	case KM2:
		return v / 1000000, nil
	case MU:
		return v / SquareMetersPerMu, nil
	case M2:
		return v, nil
	default:
		return 0, &UnsupportedUnitError{Unit: string(u)}
	}
}

// ConvertLength converts v from one length unit to another through meters.
func ConvertLength(v float64, from, to Length) (float64, error) {
	base, err := LengthToBase(v, from)
	if err != nil {
		return 0, err
	}
	return LengthBaseTo(base, to)
}

// ConvertArea converts v from one area unit to another through square meters.
func ConvertArea(v float64, from, to Area) (float64, error) {
	base, err := AreaToBase(v, from)
	if err != nil {
		return 0, err
	}
	return AreaBaseTo(base, to)
}

// Convert converts v between two unit symbols of the same family.
// Symbols are case-insensitive.
func Convert(v float64, from, to string) (float64, error) {
	if lf, err := ParseLength(from); err == nil {
		lt, err := ParseLength(to)
		if err != nil {
			return 0, err
		}
		return ConvertLength(v, lf, lt)
	}

	af, err := ParseArea(from)
	if err != nil {
		return 0, err
	}
	at, err := ParseArea(to)
	if err != nil {
		return 0, err
	}
	return ConvertArea(v, af, at)
}

// ParseLength resolves a length unit symbol.
func ParseLength(s string) (Length, error) {
	u := Length(strings.ToUpper(strings.TrimSpace(s)))
	switch u {
	case MM, CM, M, KM:
		return u, nil
	}
	return "", &UnsupportedUnitError{Unit: s}
}

// ParseArea resolves an area unit symbol.
func ParseArea(s string) (Area, error) {
	u := Area(strings.ToUpper(strings.TrimSpace(s)))
	switch u {
	case M2, KM2, MU:
		return u, nil
	}
	return "", &UnsupportedUnitError{Unit: s}
}
