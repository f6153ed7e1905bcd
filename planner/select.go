// Package planner turns column selections into physical plan trees.
package planner

import (
	"strings"

	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/physical"
)

// ColumnRef names a column, optionally qualified.
type ColumnRef struct {
	Qualifier string
	Name      string
}

// ParseColumnRef splits "t1.a" at its last dot; "a" has no qualifier.
func ParseColumnRef(ref string) (ColumnRef, error) {
	ref = strings.TrimSpace(ref)
	i := strings.LastIndexByte(ref, '.')
	if i < 0 {
		if ref == "" {
			return ColumnRef{}, errors.NewValidationErrorf("ParseColumnRef", "empty column reference")
		}
		return ColumnRef{Name: ref}, nil
	}
	q, name := ref[:i], ref[i+1:]
	if q == "" || name == "" {
		return ColumnRef{}, errors.NewValidationErrorf("ParseColumnRef", "malformed column reference %q", ref)
	}
	return ColumnRef{Qualifier: q, Name: name}, nil
}

func (r ColumnRef) String() string {
	if r.Qualifier == "" {
		return r.Name
	}
	return r.Qualifier + "." + r.Name
}

// SelectColumns plans a projection of source onto refs. The scan reads only
// the referenced columns, each once, in order of first reference; the
// projection on top lays them out as requested, repeats included. With no
// refs the plan is a scan of every column.
func SelectColumns(source datasource.TableSource, refs []string) (physical.PhysicalPlan, error) {
	if len(refs) == 0 {
		return physical.NewScanPlan(source, nil)
	}

	schema := source.Schema()
	ordinals := make([]int, len(refs))
	exprs := make([]physical.PhysicalExpr, len(refs))
	projection := make([]int, 0, len(refs))
	seen := make(map[int]bool, len(refs))

	for i, raw := range refs {
		ref, err := ParseColumnRef(raw)
		if err != nil {
			return nil, err
		}
		idx, err := schema.IndexOfName(ref.Qualifier, ref.Name)
		if err != nil {
			return nil, err
		}
		f, err := schema.Field(idx)
		if err != nil {
			return nil, err
		}
		if !seen[idx] {
			seen[idx] = true
			projection = append(projection, idx)
		}
		ordinals[i] = idx
		exprs[i] = physical.NewColumnName(f.Qualifier, f.Name)
	}

	output, err := schema.Project(ordinals)
	if err != nil {
		return nil, err
	}
	scan, err := physical.NewScanPlan(source, projection)
	if err != nil {
		return nil, err
	}
	return physical.NewProjectionPlan(scan, output, exprs)
}
