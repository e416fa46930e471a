package hal

import "unsafe"

// MaxNameLen is HAL_NAME_LEN, the longest component or resource name the HAL
// accepts, in bytes.
const MaxNameLen = 47

// Scalar is the closed set of value types the HAL can store in a pin or
// parameter: hal_float_t, hal_s32_t, hal_u32_t and hal_bit_t.
type Scalar interface {
	float64 | int32 | uint32 | bool
}

// ValueType identifies the HAL type of a pin or parameter and selects the
// matching hal_*_new primitive.
type ValueType uint8

const (
	TypeBit ValueType = iota + 1
	TypeFloat
	TypeS32
	TypeU32
)

func (t ValueType) String() string {
	switch t {
	case TypeBit:
		return "bit"
	case TypeFloat:
		return "float"
	case TypeS32:
		return "s32"
	case TypeU32:
		return "u32"
	default:
		return "unknown"
	}
}

// Size returns the number of bytes the HAL uses to store a value of type t.
func (t ValueType) Size() uintptr {
	switch t {
	case TypeBit:
		return 1
	case TypeFloat:
		return 8
	case TypeS32, TypeU32:
		return 4
	default:
		return 0
	}
}

// Align returns the natural alignment of t.
func (t ValueType) Align() uintptr {
	return t.Size()
}

func valueTypeOf[S Scalar]() ValueType {
	var v S
	switch any(v).(type) {
	case float64:
		return TypeFloat
	case int32:
		return TypeS32
	case uint32:
		return TypeU32
	case bool:
		return TypeBit
	}
	// Scalar is a closed union; every member is handled above.
	panic("hal: unreachable scalar type")
}

// ValueTypeOf returns the HAL value type used to store S.
func ValueTypeOf[S Scalar]() ValueType {
	return valueTypeOf[S]()
}

const ptrSize = unsafe.Sizeof(uintptr(0))
