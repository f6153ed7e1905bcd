package physical

import (
	"fmt"
	"slices"
	"time"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/guileen/litequery/datasource"
	"github.com/guileen/litequery/engine/errors"
	"github.com/guileen/litequery/logger"
	"github.com/guileen/litequery/types"
)

// ScanPlan is the leaf node reading a table source. The source is shared with
// any other plan reading it; the projection belongs to this node.
type ScanPlan struct {
	source     datasource.TableSource
	projection []int
	schema     *types.Schema
}

var _ PhysicalPlan = (*ScanPlan)(nil)

// NewScanPlan creates a scan returning the columns at projection, or every
// column when projection is nil.
func NewScanPlan(source datasource.TableSource, projection []int) (*ScanPlan, error) {
	if source == nil {
		return nil, errors.NewSchemaErrorf("NewScanPlan", "scan without source")
	}
	schema := source.Schema()
	if projection != nil {
		var err error
		schema, err = schema.Project(projection)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCodeSchema, "NewScanPlan", "invalid projection %v", projection)
		}
		projection = slices.Clone(projection)
	}
	return &ScanPlan{source: source, projection: projection, schema: schema}, nil
}

// NewScanPlanForSchema creates a scan reading the fields of requested,
// resolving each by name against the source schema. An unqualified requested
// field matches any qualifier; type and nullability must match. A nil
// requested schema scans every column.
func NewScanPlanForSchema(source datasource.TableSource, requested *types.Schema) (*ScanPlan, error) {
	if source == nil {
		return nil, errors.NewSchemaErrorf("NewScanPlanForSchema", "scan without source")
	}
	if requested == nil {
		return NewScanPlan(source, nil)
	}

	sourceSchema := source.Schema()
	projection := make([]int, requested.Len())
	for i, f := range requested.Fields() {
		idx, err := sourceSchema.IndexOfName(f.Qualifier, f.Name)
		if err != nil {
			return nil, err
		}
		have, _ := sourceSchema.Field(idx)
		if !arrow.TypeEqual(have.Type, f.Type) || have.Nullable != f.Nullable {
			return nil, errors.NewSchemaErrorf("NewScanPlanForSchema", "requested field %s does not match source field %s", f, have)
		}
		projection[i] = idx
	}
	return NewScanPlan(source, projection)
}

func (p *ScanPlan) Schema() *types.Schema {
	return p.schema
}

// Projection returns the ordinals read from the source, nil meaning all
func (p *ScanPlan) Projection() []int {
	return slices.Clone(p.projection)
}

// Execute returns the source batches verbatim.
func (p *ScanPlan) Execute() ([]*types.Batch, error) {
	start := time.Now()

	batches, err := p.source.Scan(p.projection)
	if err != nil {
		return nil, err
	}

	observeOperator("scan", batches, time.Since(start))
	logger.With(logger.Component("scan")).Debug("Scan executed", "projection", p.projection, "batches", len(batches), "duration", time.Since(start))
	return batches, nil
}

func (p *ScanPlan) Children() []PhysicalPlan {
	return nil
}

func (p *ScanPlan) String() string {
	if p.projection == nil {
		return fmt.Sprintf("ScanPlan: schema=%s", p.schema)
	}
	return fmt.Sprintf("ScanPlan: projection=%v schema=%s", p.projection, p.schema)
}
