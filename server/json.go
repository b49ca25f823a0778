package server

import (
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"

	"github.com/robert-malhotra/go-dap/data"
	"github.com/robert-malhotra/go-dap/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Description is the JSON form of a dataset.
type Description struct {
	Name       string           `json:"name"`
	Attributes model.Attributes `json:"attributes"`
	Variables  []VariableInfo   `json:"variables"`
}

// VariableInfo describes one leaf. Data is only filled by the .json
// response.
type VariableInfo struct {
	Path       string           `json:"path"`
	Type       string           `json:"type"`
	Shape      []int            `json:"shape"`
	Dimensions []string         `json:"dimensions,omitempty"`
	Attributes model.Attributes `json:"attributes,omitempty"`
	Data       interface{}      `json:"data,omitempty"`
}

// Describe lists the metadata of every leaf in ds.
func Describe(ds *model.DatasetType) *Description {
	return describe(ds, leaves("", ds))
}

func describe(ds *model.DatasetType, ls []leaf) *Description {
	d := &Description{
		Name:       ds.Name(),
		Attributes: ds.Attributes(),
		Variables:  make([]VariableInfo, 0, len(ls)),
	}
	for _, l := range ls {
		typ, ok := model.TypeName(l.node.Dtype())
		if !ok {
			typ = l.node.Dtype().String()
		}
		d.Variables = append(d.Variables, VariableInfo{
			Path:       l.path,
			Type:       typ,
			Shape:      l.node.Shape(),
			Dimensions: l.node.Dimensions,
			Attributes: l.node.Attributes(),
		})
	}
	return d
}

// writeJSON writes the description of the projected leaves with their
// values.
func writeJSON(w io.Writer, ds *model.DatasetType, ls []leaf) error {
	d := describe(ds, ls)
	for i, l := range ls {
		a, err := l.node.Data.Read()
		if err != nil {
			return err
		}
		d.Variables[i].Data = nest(a)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// nest converts a into nested slices. Non-finite floats become null.
func nest(a *data.Array) interface{} {
	shape := a.Shape()
	pos := 0
	var rec func(axis int) interface{}
	rec = func(axis int) interface{} {
		if axis == len(shape) {
			v := a.Value(pos)
			pos++
			switch f := v.(type) {
			case float32:
				if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
					return nil
				}
			case float64:
				if math.IsNaN(f) || math.IsInf(f, 0) {
					return nil
				}
			}
			return v
		}
		out := make([]interface{}, shape[axis])
		for i := range out {
			out[i] = rec(axis + 1)
		}
		return out
	}
	return rec(0)
}
