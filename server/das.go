package server

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-dap/model"
)

// writeDAS writes the Data Attribute Structure of ds. Dataset attributes
// come first, then one block per node in tree order.
func writeDAS(w io.Writer, ds *model.DatasetType) error {
	var b strings.Builder
	b.WriteString("Attributes {\n")
	dasAttrs(&b, ds.Attributes(), 1)
	for _, child := range ds.Children() {
		dasNode(&b, child, 1)
	}
	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func dasNode(b *strings.Builder, n model.Node, level int) {
	pad := strings.Repeat(indent, level)
	fmt.Fprintf(b, "%s%s {\n", pad, n.Name())
	dasAttrs(b, n.Attributes(), level+1)
	if p, ok := n.(model.Parent); ok {
		for _, child := range p.Children() {
			dasNode(b, child, level+1)
		}
	}
	fmt.Fprintf(b, "%s}\n", pad)
}

// dasAttrs writes attrs sorted by name. Nested containers become blocks.
func dasAttrs(b *strings.Builder, attrs model.Attributes, level int) {
	pad := strings.Repeat(indent, level)
	names := make([]string, 0, len(attrs))
	for k := range attrs {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		v := attrs[name]
		if nested, ok := asAttributes(v); ok {
			fmt.Fprintf(b, "%s%s {\n", pad, name)
			dasAttrs(b, nested, level+1)
			fmt.Fprintf(b, "%s}\n", pad)
			continue
		}
		typ, ok := model.AttributeType(v)
		if !ok {
			continue
		}
		fmt.Fprintf(b, "%s%s %s %s;\n", pad, typ, name, strings.Join(attrValues(v), ", "))
	}
}

func asAttributes(v interface{}) (model.Attributes, bool) {
	switch v := v.(type) {
	case model.Attributes:
		return v, true
	case map[string]interface{}:
		return model.Attributes(v), true
	}
	return nil, false
}

// attrValues formats a scalar or slice attribute value, quoting strings.
func attrValues(v interface{}) []string {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []string{formatValue(v)}
	}
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = formatValue(rv.Index(i).Interface())
	}
	return out
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
