// Package check implements the validation engine. Checks are advisory: the
// engine scans column data on demand and reports violations as data, never
// as errors, and never alters what it finds. Which checks run is fixed per
// component at definition time; everything is off by default.
package check

import (
	"math"

	"github.com/axonlabs/simdb/schema"
	"github.com/axonlabs/simdb/store"
	"github.com/axonlabs/simdb/types"
)

// Kind classifies a violation.
type Kind uint8

const (
	NaNCheckFailure Kind = iota
	BoundsCheckFailure
	NullCheckFailure
)

func (k Kind) String() string {
	switch k {
	case NaNCheckFailure:
		return "nan"
	case BoundsCheckFailure:
		return "bounds"
	case NullCheckFailure:
		return "null"
	}
	return "unknown"
}

// Violation is one flagged cell.
type Violation struct {
	Archetype types.ArchetypeID
	Component types.ComponentID
	Row       uint32
	Kind      Kind

	// Value is the offending value for NaN and bounds violations.
	Value float64

	// Entry is the index within the row for sparse matrix violations, -1
	// otherwise.
	Entry int
}

// Report aggregates the violations of one check run.
type Report struct {
	Violations []Violation
}

// Ok reports whether the run found nothing.
func (r *Report) Ok() bool {
	return len(r.Violations) == 0
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// Engine runs configured checks over column data.
type Engine struct {
	registry *schema.Registry
	tables   map[types.ArchetypeID]*store.Table
}

func NewEngine(registry *schema.Registry, tables map[types.ArchetypeID]*store.Table) *Engine {
	return &Engine{registry: registry, tables: tables}
}

// Check runs the configured checks for a single component.
func (e *Engine) Check(comp types.ComponentID) (*Report, error) {
	def, err := e.registry.Component(comp)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	e.checkComponent(def, report)
	return report, nil
}

// CheckAll runs every configured check across the whole database and
// returns the aggregated report.
func (e *Engine) CheckAll() *Report {
	report := &Report{}
	for _, def := range e.registry.Components() {
		e.checkComponent(def, report)
	}
	return report
}

func (e *Engine) checkComponent(def *schema.Component, report *Report) {
	if !def.Checks.Enabled() {
		return
	}
	t, ok := e.tables[def.Archetype]
	if !ok {
		return
	}
	switch def.Kind {
	case types.Attribute:
		if def.Type.Kind == types.KindPointer {
			e.checkPointerColumn(def, t, report)
			return
		}
		e.checkFloatColumn(def, t, report)
	case types.GlobalConstant:
		e.checkGlobal(def, t, report)
	case types.SparseMatrix:
		e.checkSparse(def, t, report)
	}
}

func (e *Engine) checkFloatColumn(def *schema.Component, t *store.Table, report *Report) {
	col := t.Column(def.ID)
	for row := uint32(0); int(row) < t.Count(); row++ {
		e.checkFloatValue(def, row, -1, col.Float64(row), report)
	}
}

func (e *Engine) checkPointerColumn(def *schema.Component, t *store.Table, report *Report) {
	if !def.Checks.Null {
		return
	}
	col := t.Column(def.ID)
	null := def.Type.Null()
	for row := uint32(0); int(row) < t.Count(); row++ {
		if col.Uint(row) == null {
			report.add(Violation{
				Archetype: def.Archetype,
				Component: def.ID,
				Row:       row,
				Kind:      NullCheckFailure,
				Entry:     -1,
			})
		}
	}
}

func (e *Engine) checkGlobal(def *schema.Component, t *store.Table, report *Report) {
	if def.Type.Kind != types.KindFloat {
		return
	}
	e.checkFloatValue(def, 0, -1, t.Global(def.ID).Float64(), report)
}

func (e *Engine) checkSparse(def *schema.Component, t *store.Table, report *Report) {
	sm := t.Sparse(def.ID)
	for row := uint32(0); int(row) < t.Count(); row++ {
		targets := sm.RowTargets(row)
		values := sm.RowValues(row)
		for k := range targets {
			if def.Checks.Null && targets[k] == store.NullTarget {
				report.add(Violation{
					Archetype: def.Archetype,
					Component: def.ID,
					Row:       row,
					Kind:      NullCheckFailure,
					Entry:     k,
				})
			}
			e.checkFloatValue(def, row, k, values[k], report)
		}
	}
}

func (e *Engine) checkFloatValue(def *schema.Component, row uint32, entry int, v float64, report *Report) {
	if def.Checks.NaN && math.IsNaN(v) {
		report.add(Violation{
			Archetype: def.Archetype,
			Component: def.ID,
			Row:       row,
			Kind:      NaNCheckFailure,
			Value:     v,
			Entry:     entry,
		})
	}
	if b := def.Checks.Bounds; b != nil && !math.IsNaN(v) && (v < b.Min || v > b.Max) {
		report.add(Violation{
			Archetype: def.Archetype,
			Component: def.ID,
			Row:       row,
			Kind:      BoundsCheckFailure,
			Value:     v,
			Entry:     entry,
		})
	}
}
