package model

import "github.com/robert-malhotra/go-dap/data"

// TypeName returns the DAP2 type name for d. DAP2 has no 64-bit integers,
// so Int64 and Uint64 report false.
func TypeName(d data.Dtype) (string, bool) {
	switch d {
	case data.Int8, data.Uint8:
		return "Byte", true
	case data.Int16:
		return "Int16", true
	case data.Uint16:
		return "UInt16", true
	case data.Int32:
		return "Int32", true
	case data.Uint32:
		return "UInt32", true
	case data.Float32:
		return "Float32", true
	case data.Float64:
		return "Float64", true
	case data.String:
		return "String", true
	default:
		return "", false
	}
}

// AttributeType returns the DAP2 type name of an attribute value, or false
// if the value cannot be represented. Nested Attributes report "Container".
func AttributeType(v interface{}) (string, bool) {
	switch v.(type) {
	case Attributes, map[string]interface{}:
		return "Container", true
	case nil:
		return "", false
	}
	return TypeName(data.DtypeOf(v))
}
