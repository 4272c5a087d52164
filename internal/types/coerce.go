package types

import "fortio.org/safecast"

// LiteralFits reports whether integer literal value v fits within an
// integer type of the given width/signedness (P5, I4). Uses
// fortio.org/safecast's checked conversions instead of hand-rolled range
// arithmetic, mirroring the teacher's pervasive safecast.Conv[T] usage
// for width-checked numeric conversions.
func LiteralFits(v int64, width uint8, signed bool) bool {
	var err error
	switch {
	case signed && width == 8:
		_, err = safecast.Conv[int8](v)
	case signed && width == 16:
		_, err = safecast.Conv[int16](v)
	case signed && width == 32:
		_, err = safecast.Conv[int32](v)
	case signed && width == 64:
		_, err = safecast.Conv[int64](v)
	case !signed && width == 8:
		_, err = safecast.Conv[uint8](v)
	case !signed && width == 16:
		_, err = safecast.Conv[uint16](v)
	case !signed && width == 32:
		_, err = safecast.Conv[uint32](v)
	case !signed && width == 64:
		if v < 0 {
			return false
		}
		_, err = safecast.Conv[uint64](uint64(v))
	default:
		return false
	}
	return err == nil
}

// SmallestFittingWidth returns the narrowest standard integer width
// (8/16/32/64) that can represent v, preferring signed unless v requires
// the sign bit as magnude (matches "smallest fitting signed type is
// chosen when assigned to a typed slot", §4.2).
func SmallestFittingWidth(v int64) (width uint8, signed bool) {
	for _, w := range [...]uint8{8, 16, 32, 64} {
		if LiteralFits(v, w, true) {
			return w, true
		}
	}
	return 64, false
}

// PromoteWidth returns the larger of two integer widths, per "binary
// arithmetic widens to the larger operand width" (§4.2).
func PromoteWidth(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// UnsignedPromotion returns the result type of mixing a signed and an
// unsigned integer in arithmetic/comparison: the unsigned type at the
// wider of the two operand widths (§4.2 "the result type is the unsigned
// promotion").
func UnsignedPromotion(a, b SizedType) SizedType {
	return Int(PromoteWidth(a.IntWidth, b.IntWidth), false)
}

// BinaryArithResult computes the result type of `a op b` for two integer
// operands per the widening/sign rules in §4.2. mixedSign reports whether
// a warning for signed/unsigned mixing should be emitted by the caller.
func BinaryArithResult(a, b SizedType) (result SizedType, mixedSign bool) {
	width := PromoteWidth(a.IntWidth, b.IntWidth)
	if a.Signed == b.Signed {
		return Int(width, a.Signed), false
	}
	return Int(width, false), true
}
