package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a path names no node.
var ErrNotFound = errors.New("node not found")

// SplitPath splits a dotted path into its components. Empty components are
// removed.
//
// Examples:
//   - "" -> []string{}
//   - "tasmax" -> []string{"tasmax"}
//   - "group.tasmax" -> []string{"group", "tasmax"}
func SplitPath(path string) []string {
	path = strings.Trim(path, ".")
	if path == "" {
		return []string{}
	}
	parts := strings.Split(path, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinPath joins components with dots, skipping empty ones.
func JoinPath(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

// Lookup resolves a dotted path below p.
func Lookup(p Parent, path string) (Node, error) {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}

	var cur Node = p
	for i, name := range parts {
		parent, ok := cur.(Parent)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a container", ErrNotFound, JoinPath(parts[:i]...))
		}
		child, ok := parent.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, JoinPath(parts[:i+1]...))
		}
		cur = child
	}
	return cur, nil
}

// WalkFunc is called for each node during traversal. path is the dotted
// path from the walk root, which itself has an empty path.
type WalkFunc func(path string, n Node) error

// Walk calls fn for root and then, depth first, for every node below it.
func Walk(root Node, fn WalkFunc) error {
	return walk("", root, fn)
}

func walk(path string, n Node, fn WalkFunc) error {
	if err := fn(path, n); err != nil {
		return err
	}
	parent, ok := n.(Parent)
	if !ok {
		return nil
	}
	for _, child := range parent.Children() {
		if err := walk(JoinPath(path, child.Name()), child, fn); err != nil {
			return err
		}
	}
	return nil
}
