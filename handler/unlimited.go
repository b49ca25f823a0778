package handler

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-dap/data"
)

// FindUnlimited returns the sorted names of every growable dimension below
// root. Groups with a dimension table contribute their unlimited entries;
// variables that report a maximum shape contribute the names of their
// unlimited axes. Nodes whose metadata cannot be read are skipped.
func FindUnlimited(root Group, log logrus.FieldLogger) []string {
	if log == nil {
		log = logrus.StandardLogger()
	}
	found := make(map[string]bool)

	Walk(root, func(p string, obj interface{}, err error) error {
		if err != nil {
			log.WithError(err).WithField("path", p).Debug("skipping unreadable group")
			return nil
		}

		switch o := obj.(type) {
		case DimensionLister:
			dims, err := o.DimensionTable()
			if err != nil {
				log.WithError(err).WithField("path", p).Debug("skipping unreadable dimension table")
				return nil
			}
			for _, d := range dims {
				if d.Unlimited {
					found[d.Name] = true
				}
			}

		case Variable:
			ms, ok := o.(data.MaxShaper)
			if !ok {
				return nil
			}
			max, err := ms.MaxShape()
			if err != nil {
				log.WithError(err).WithField("path", p).Debug("skipping variable without maximum shape")
				return nil
			}
			dims := o.Dimensions()
			if len(dims) != len(max) {
				return nil
			}
			for i, m := range max {
				if m == data.Unlimited && dims[i] != "" {
					found[dims[i]] = true
				}
			}
		}
		return nil
	})

	names := make([]string, 0, len(found))
	for n := range found {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
