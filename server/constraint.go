package server

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-dap/hyperslab"
	"github.com/robert-malhotra/go-dap/model"
)

// ErrBadConstraint is returned for constraint expressions that cannot be
// parsed or applied.
var ErrBadConstraint = errors.New("malformed constraint expression")

// projection is one comma-separated term of a constraint: a dotted name
// followed by zero or more DAP hyperslabs.
type projection struct {
	name  string
	slabs []hyperslab.Axis
}

// parseConstraint splits a query string into projections. Selections
// (terms after '&') are not supported and are ignored.
func parseConstraint(query string) ([]projection, error) {
	q, err := url.QueryUnescape(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConstraint, err)
	}
	if i := strings.IndexByte(q, '&'); i >= 0 {
		q = q[:i]
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	var out []projection
	for _, term := range strings.Split(q, ",") {
		p, err := parseProjection(strings.TrimSpace(term))
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseProjection(term string) (projection, error) {
	var p projection
	i := strings.IndexByte(term, '[')
	if i < 0 {
		i = len(term)
	}
	p.name = term[:i]
	if p.name == "" || strings.ContainsAny(p.name, "]: ") {
		return p, fmt.Errorf("%w: bad name in %q", ErrBadConstraint, term)
	}

	rest := term[i:]
	for rest != "" {
		if rest[0] != '[' {
			return p, fmt.Errorf("%w: unexpected %q", ErrBadConstraint, rest)
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return p, fmt.Errorf("%w: unclosed bracket in %q", ErrBadConstraint, term)
		}
		a, err := parseSlab(rest[1:end])
		if err != nil {
			return p, err
		}
		p.slabs = append(p.slabs, a)
		rest = rest[end+1:]
	}
	return p, nil
}

// parseSlab parses "start", "start:stop" or "start:stride:stop". DAP stops
// are inclusive.
func parseSlab(s string) (hyperslab.Axis, error) {
	parts := strings.Split(s, ":")
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			return hyperslab.Axis{}, fmt.Errorf("%w: bad index %q", ErrBadConstraint, part)
		}
		nums[i] = n
	}

	var start, stride, stop int
	switch len(nums) {
	case 1:
		start, stride, stop = nums[0], 1, nums[0]
	case 2:
		start, stride, stop = nums[0], 1, nums[1]
	case 3:
		start, stride, stop = nums[0], nums[1], nums[2]
	default:
		return hyperslab.Axis{}, fmt.Errorf("%w: bad hyperslab [%s]", ErrBadConstraint, s)
	}
	if stride == 0 || stop < start {
		return hyperslab.Axis{}, fmt.Errorf("%w: bad hyperslab [%s]", ErrBadConstraint, s)
	}
	return hyperslab.Strided(start, stop+1, stride), nil
}

// leaf is a projected variable together with its dotted path.
type leaf struct {
	path string
	node *model.BaseType
}

// resolve applies projections to ds. With no projections every leaf in the
// dataset is returned.
func resolve(ds *model.DatasetType, projs []projection) ([]leaf, error) {
	if len(projs) == 0 {
		return leaves("", ds), nil
	}

	var out []leaf
	for _, p := range projs {
		n, err := model.Lookup(ds, p.name)
		if err != nil {
			return nil, err
		}
		switch n := n.(type) {
		case *model.BaseType:
			b, err := sliceLeaf(n, p.slabs)
			if err != nil {
				return nil, err
			}
			out = append(out, leaf{path: p.name, node: b})

		case *model.GridType:
			arr := n.Array()
			if arr == nil {
				continue
			}
			b, err := sliceLeaf(arr, p.slabs)
			if err != nil {
				return nil, err
			}
			out = append(out, leaf{path: model.JoinPath(p.name, arr.Name()), node: b})
			for _, m := range n.Maps() {
				var slabs []hyperslab.Axis
				if i := axisOf(arr, m.Name()); i >= 0 && i < len(p.slabs) {
					slabs = p.slabs[i : i+1]
				}
				b, err := sliceLeaf(m, slabs)
				if err != nil {
					return nil, err
				}
				out = append(out, leaf{path: model.JoinPath(p.name, m.Name()), node: b})
			}

		default:
			if len(p.slabs) > 0 {
				return nil, fmt.Errorf("%w: %s cannot be sliced", ErrBadConstraint, p.name)
			}
			out = append(out, leaves(p.name, n)...)
		}
	}
	return out, nil
}

// sliceLeaf narrows b by slabs, one per leading axis. Missing trailing
// axes are left whole.
func sliceLeaf(b *model.BaseType, slabs []hyperslab.Axis) (*model.BaseType, error) {
	if len(slabs) == 0 {
		return b, nil
	}
	rank := b.Data.Rank()
	if len(slabs) > rank {
		return nil, fmt.Errorf("%w: %d hyperslabs for %s of rank %d", ErrBadConstraint, len(slabs), b.Name(), rank)
	}
	keys := make([]hyperslab.Key, rank)
	for i := range keys {
		keys[i] = hyperslab.All()
		if i < len(slabs) {
			keys[i] = slabs[i]
		}
	}
	return b.Slice(keys...)
}

// axisOf returns the axis of b named dim, or -1.
func axisOf(b *model.BaseType, dim string) int {
	for i, d := range b.Dimensions {
		if d == dim {
			return i
		}
	}
	return -1
}

// leaves lists every BaseType at or below n.
func leaves(prefix string, n model.Node) []leaf {
	var out []leaf
	model.Walk(n, func(p string, n model.Node) error {
		if b, ok := n.(*model.BaseType); ok {
			out = append(out, leaf{path: model.JoinPath(prefix, p), node: b})
		}
		return nil
	})
	return out
}
