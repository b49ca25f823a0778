package handler

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/model"
)

// convertAttributes keeps the attributes whose values DAP can represent.
// Everything else is dropped with a warning.
func convertAttributes(owner string, raw []Attribute, log logrus.FieldLogger) model.Attributes {
	out := model.Attributes{}
	for _, a := range raw {
		fields := logrus.Fields{"attribute": a.Name, "variable": owner}
		if a.Err != nil {
			log.WithFields(fields).WithError(a.Err).Warn("dropping unreadable attribute")
			continue
		}
		if _, ok := model.AttributeType(a.Value); !ok {
			fields["type"] = fmt.Sprintf("%T", a.Value)
			log.WithFields(fields).Warn("dropping attribute with no DAP equivalent")
			continue
		}
		out[a.Name] = a.Value
	}
	return out
}

type attributed interface {
	Attributes() ([]Attribute, error)
}

// readAttributes reads and converts the attributes of a group or variable.
func readAttributes(owner string, src attributed, log logrus.FieldLogger) model.Attributes {
	raw, err := src.Attributes()
	if err != nil {
		log.WithError(err).WithField("variable", owner).Warn("unable to read attributes")
		return model.Attributes{}
	}
	return convertAttributes(owner, raw, log)
}
