package data

import (
	"fmt"
	"reflect"
)

// Dtype is the element type of a variable or array.
type Dtype int

const (
	Invalid Dtype = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	String
)

var dtypeNames = [...]string{
	Invalid: "invalid",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
	String:  "string",
}

func (d Dtype) String() string {
	if d < 0 || int(d) >= len(dtypeNames) {
		return fmt.Sprintf("Dtype(%d)", int(d))
	}
	return dtypeNames[d]
}

// ParseDtype maps a Go type name such as "float32" to its Dtype. Unknown
// names map to Invalid.
func ParseDtype(name string) Dtype {
	if name == "byte" || name == "ubyte" {
		return Uint8
	}
	for d, n := range dtypeNames {
		if n == name && d != int(Invalid) {
			return Dtype(d)
		}
	}
	return Invalid
}

// Size returns the width of one element in bytes, or 0 for strings.
func (d Dtype) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	default:
		return 0
	}
}

// IsNumeric reports whether d is an integer or floating point type.
func (d Dtype) IsNumeric() bool {
	return d.Size() > 0
}

// GoType returns the reflect.Type of a single element.
func (d Dtype) GoType() reflect.Type {
	switch d {
	case Int8:
		return reflect.TypeOf(int8(0))
	case Uint8:
		return reflect.TypeOf(uint8(0))
	case Int16:
		return reflect.TypeOf(int16(0))
	case Uint16:
		return reflect.TypeOf(uint16(0))
	case Int32:
		return reflect.TypeOf(int32(0))
	case Uint32:
		return reflect.TypeOf(uint32(0))
	case Int64:
		return reflect.TypeOf(int64(0))
	case Uint64:
		return reflect.TypeOf(uint64(0))
	case Float32:
		return reflect.TypeOf(float32(0))
	case Float64:
		return reflect.TypeOf(float64(0))
	case String:
		return reflect.TypeOf("")
	default:
		return nil
	}
}

// kindDtype maps an element kind to its Dtype.
func kindDtype(k reflect.Kind) Dtype {
	switch k {
	case reflect.Int8:
		return Int8
	case reflect.Uint8:
		return Uint8
	case reflect.Int16:
		return Int16
	case reflect.Uint16:
		return Uint16
	case reflect.Int32:
		return Int32
	case reflect.Uint32:
		return Uint32
	case reflect.Int64:
		return Int64
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	case reflect.String:
		return String
	default:
		return Invalid
	}
}

// DtypeOf returns the element type of a flat slice such as []float32, or of
// a single scalar value.
func DtypeOf(values interface{}) Dtype {
	if values == nil {
		return Invalid
	}
	t := reflect.TypeOf(values)
	if t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return kindDtype(t.Kind())
}

// makeSlice returns a zeroed flat slice of n elements of type d.
func (d Dtype) makeSlice(n int) interface{} {
	t := d.GoType()
	if t == nil {
		return nil
	}
	return reflect.MakeSlice(reflect.SliceOf(t), n, n).Interface()
}
