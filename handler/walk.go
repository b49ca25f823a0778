package handler

import (
	"path"
)

// WalkFunc is called for each object during traversal.
// path is the full slash-separated path to the object.
// obj is either a Group or a Variable.
// err is any error encountered listing the object's parent.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(path string, obj interface{}, err error) error

// Walk traverses every group and variable below g, including g itself.
// Groups are visited before their variables, variables before subgroups.
//
// Example:
//
//	handler.Walk(root, func(path string, obj interface{}, err error) error {
//	    if err != nil {
//	        return nil // skip unreadable groups
//	    }
//	    if v, ok := obj.(handler.Variable); ok {
//	        fmt.Println(path, v.Shape())
//	    }
//	    return nil
//	})
//
// Returning ErrStopWalk ends the walk early and Walk returns nil.
func Walk(g Group, fn WalkFunc) error {
	err := walkGroup("/", g, fn)
	if IsStopWalk(err) {
		return nil
	}
	return err
}

func walkGroup(p string, g Group, fn WalkFunc) error {
	if err := fn(p, g, nil); err != nil {
		return err
	}

	vars, err := g.Variables()
	if err != nil {
		if err := fn(p, nil, err); err != nil {
			return err
		}
	}
	for _, v := range vars {
		if err := fn(path.Join(p, v.Name()), v, nil); err != nil {
			return err
		}
	}

	groups, err := g.Groups()
	if err != nil {
		return fn(p, nil, err)
	}
	for _, sub := range groups {
		if err := walkGroup(path.Join(p, sub.Name()), sub, fn); err != nil {
			return err
		}
	}
	return nil
}
