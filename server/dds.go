package server

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/model"
)

const indent = "    "

// writeDDS writes the Dataset Descriptor Structure of ds. Leaves whose
// element type has no DAP2 equivalent are omitted.
func writeDDS(w io.Writer, ds *model.DatasetType, log logrus.FieldLogger) error {
	var b strings.Builder
	b.WriteString("Dataset {\n")
	for _, child := range ds.Children() {
		ddsNode(&b, child, 1, log)
	}
	fmt.Fprintf(&b, "} %s;\n", ds.Name())
	_, err := io.WriteString(w, b.String())
	return err
}

func ddsNode(b *strings.Builder, n model.Node, level int, log logrus.FieldLogger) {
	pad := strings.Repeat(indent, level)
	switch n := n.(type) {
	case *model.BaseType:
		if decl, ok := ddsDecl(n); ok {
			fmt.Fprintf(b, "%s%s;\n", pad, decl)
		} else {
			log.WithFields(logrus.Fields{"variable": n.Name(), "type": n.Dtype().String()}).
				Warn("omitting variable with no DAP equivalent")
		}

	case *model.GridType:
		arr := n.Array()
		decl, ok := "", arr != nil
		if ok {
			decl, ok = ddsDecl(arr)
		}
		if !ok {
			log.WithField("variable", n.Name()).Warn("omitting grid with no DAP equivalent")
			return
		}
		fmt.Fprintf(b, "%sGrid {\n%s  Array:\n", pad, pad)
		fmt.Fprintf(b, "%s%s%s;\n", pad, indent, decl)
		fmt.Fprintf(b, "%s  Maps:\n", pad)
		for _, m := range n.Maps() {
			if decl, ok := ddsDecl(m); ok {
				fmt.Fprintf(b, "%s%s%s;\n", pad, indent, decl)
			}
		}
		fmt.Fprintf(b, "%s} %s;\n", pad, n.Name())

	case *model.StructureType:
		fmt.Fprintf(b, "%sStructure {\n", pad)
		for _, child := range n.Children() {
			ddsNode(b, child, level+1, log)
		}
		fmt.Fprintf(b, "%s} %s;\n", pad, n.Name())
	}
}

// ddsDecl formats a leaf as "Type name[dim = n]...".
func ddsDecl(v *model.BaseType) (string, bool) {
	typ, ok := model.TypeName(v.Dtype())
	if !ok {
		return "", false
	}
	var b strings.Builder
	b.WriteString(typ)
	b.WriteByte(' ')
	b.WriteString(v.Name())
	for i, n := range v.Shape() {
		if i < len(v.Dimensions) && v.Dimensions[i] != "" {
			fmt.Fprintf(&b, "[%s = %d]", v.Dimensions[i], n)
		} else {
			fmt.Fprintf(&b, "[%d]", n)
		}
	}
	return b.String(), true
}
