package physical

import (
	"fmt"
	"strings"
	"time"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/logger"
	"github.com/guileen/litequery/types"
)

// ProjectionPlan evaluates one expression per output field against every
// batch of its child. Rows are never filtered or reordered, only columns.
type ProjectionPlan struct {
	input  PhysicalPlan
	schema *types.Schema
	exprs  []PhysicalExpr
}

var _ PhysicalPlan = (*ProjectionPlan)(nil)

// NewProjectionPlan creates a projection over input producing schema, with
// exprs[i] computing schema field i.
func NewProjectionPlan(input PhysicalPlan, schema *types.Schema, exprs []PhysicalExpr) (*ProjectionPlan, error) {
	if input == nil {
		return nil, errors.NewSchemaErrorf("NewProjectionPlan", "projection without input")
	}
	if schema == nil {
		return nil, errors.NewSchemaErrorf("NewProjectionPlan", "projection without output schema")
	}
	if len(exprs) != schema.Len() {
		return nil, errors.NewSchemaErrorf("NewProjectionPlan", "%d expressions for %d output fields", len(exprs), schema.Len())
	}
	return &ProjectionPlan{
		input:  input,
		schema: schema,
		exprs:  append([]PhysicalExpr(nil), exprs...),
	}, nil
}

func (p *ProjectionPlan) Schema() *types.Schema {
	return p.schema
}

// Execute fails as a whole on the first expression error; no partial output
// is returned.
func (p *ProjectionPlan) Execute() ([]*types.Batch, error) {
	input, err := p.input.Execute()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	output := make([]*types.Batch, len(input))
	for i, batch := range input {
		columns := make([]arrow.Array, len(p.exprs))
		for j, expr := range p.exprs {
			col, err := expr.Evaluate(batch)
			if err != nil {
				return nil, err
			}
			columns[j] = col
		}
		out, err := types.NewBatchWithRows(p.schema, columns, batch.NumRows())
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeSchema, "ProjectionPlan.Execute", "batch %d does not match %s", i, p.schema)
		}
		output[i] = out
	}

	observeOperator("projection", output, time.Since(start))
	logger.With(logger.Component("projection")).Debug("Projection executed", "exprs", len(p.exprs), "batches", len(output), "duration", time.Since(start))
	return output, nil
}

func (p *ProjectionPlan) Children() []PhysicalPlan {
	return []PhysicalPlan{p.input}
}

func (p *ProjectionPlan) String() string {
	exprs := make([]string, len(p.exprs))
	for i, e := range p.exprs {
		exprs[i] = e.String()
	}
	return fmt.Sprintf("ProjectionPlan: exprs=[%s] schema=%s", strings.Join(exprs, ", "), p.schema)
}
