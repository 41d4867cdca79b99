package store

import (
	"github.com/rotisserie/eris"

	"github.com/axonlabs/simdb/types"
)

var ErrMalformedSparseInput = eris.New("malformed sparse matrix input")

// Entry is one (target pointer, weight) pair in a sparse matrix row.
type Entry struct {
	Target uint32
	Value  float64
}

// SparseMatrixColumn stores, per row, a variable-length list of weighted
// pointers to rows of a target archetype, in compressed-row form: row i owns
// the half-open slice [offsets[i], offsets[i+1]) of the parallel targets and
// values arrays. offsets has length Rows()+1, is non-decreasing, and its
// last element equals NNZ(). The invariant holds continuously except inside
// an in-progress commit.
type SparseMatrixColumn struct {
	offsets []int
	targets []uint32
	values  []float64
}

func NewSparseMatrixColumn() *SparseMatrixColumn {
	return &SparseMatrixColumn{offsets: []int{0}}
}

// Rows returns the number of rows.
func (s *SparseMatrixColumn) Rows() int {
	return len(s.offsets) - 1
}

// NNZ returns the total number of stored entries.
func (s *SparseMatrixColumn) NNZ() int {
	return len(s.targets)
}

// Len reports the number of entries in row i.
func (s *SparseMatrixColumn) Len(i uint32) int {
	return s.offsets[i+1] - s.offsets[i]
}

// Row materializes row i as a slice of entries.
func (s *SparseMatrixColumn) Row(i uint32) []Entry {
	lo, hi := s.offsets[i], s.offsets[i+1]
	entries := make([]Entry, hi-lo)
	for k := lo; k < hi; k++ {
		entries[k-lo] = Entry{Target: s.targets[k], Value: s.values[k]}
	}
	return entries
}

// RowTargets returns a direct view of row i's targets. The view is
// invalidated by any structural mutation.
func (s *SparseMatrixColumn) RowTargets(i uint32) []uint32 {
	return s.targets[s.offsets[i]:s.offsets[i+1]]
}

// RowValues returns a direct view of row i's weights.
func (s *SparseMatrixColumn) RowValues(i uint32) []float64 {
	return s.values[s.offsets[i]:s.offsets[i+1]]
}

// Value returns the weight of the k-th entry of row i.
func (s *SparseMatrixColumn) Value(i uint32, k int) float64 {
	return s.values[s.offsets[i]+k]
}

// SetValue overwrites the weight of the k-th entry of row i. Weights can be
// patched in place; the row structure cannot.
func (s *SparseMatrixColumn) SetValue(i uint32, k int, v float64) {
	s.values[s.offsets[i]+k] = v
}

// Target returns the target of the k-th entry of row i.
func (s *SparseMatrixColumn) Target(i uint32, k int) uint32 {
	return s.targets[s.offsets[i]+k]
}

// AppendRow adds a new row at index Rows() holding the given entries.
func (s *SparseMatrixColumn) AppendRow(entries []Entry) {
	for _, e := range entries {
		s.targets = append(s.targets, e.Target)
		s.values = append(s.values, e.Value)
	}
	s.offsets = append(s.offsets, len(s.targets))
}

// SetRow replaces the entries of row i, splicing the packed arrays. This is
// linear in NNZ; bulk loads should use Rebuild instead.
func (s *SparseMatrixColumn) SetRow(i uint32, entries []Entry) {
	lo, hi := s.offsets[i], s.offsets[i+1]
	delta := len(entries) - (hi - lo)

	targets := make([]uint32, 0, len(s.targets)+delta)
	values := make([]float64, 0, len(s.values)+delta)
	targets = append(targets, s.targets[:lo]...)
	values = append(values, s.values[:lo]...)
	for _, e := range entries {
		targets = append(targets, e.Target)
		values = append(values, e.Value)
	}
	targets = append(targets, s.targets[hi:]...)
	values = append(values, s.values[hi:]...)
	s.targets = targets
	s.values = values

	for j := int(i) + 1; j < len(s.offsets); j++ {
		s.offsets[j] += delta
	}
}

// Rebuild replaces the whole structure with the given rows. Per-row slices
// cannot be patched incrementally across a commit, so the engine rebuilds
// the column whenever rows move.
func (s *SparseMatrixColumn) Rebuild(rows [][]Entry) {
	s.offsets = s.offsets[:1]
	s.targets = s.targets[:0]
	s.values = s.values[:0]
	for _, row := range rows {
		for _, e := range row {
			s.targets = append(s.targets, e.Target)
			s.values = append(s.values, e.Value)
		}
		s.offsets = append(s.offsets, len(s.targets))
	}
}

// RebuildCSR replaces the whole structure from raw compressed-row arrays.
// The input is validated: offsets must start at zero, be non-decreasing,
// end at len(targets), and targets and values must be parallel. Malformed
// input fails here rather than corrupting later reads.
func (s *SparseMatrixColumn) RebuildCSR(offsets []int, targets []uint32, values []float64) error {
	if len(offsets) == 0 || offsets[0] != 0 {
		return eris.Wrap(ErrMalformedSparseInput, "offsets must start at 0")
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return eris.Wrapf(ErrMalformedSparseInput, "offsets decrease at %d", i)
		}
	}
	if offsets[len(offsets)-1] != len(targets) {
		return eris.Wrap(ErrMalformedSparseInput, "final offset does not equal entry count")
	}
	if len(targets) != len(values) {
		return eris.Wrap(ErrMalformedSparseInput, "targets and values are not parallel")
	}
	s.offsets = append(s.offsets[:0], offsets...)
	s.targets = append(s.targets[:0], targets...)
	s.values = append(s.values[:0], values...)
	return nil
}

// RemapTargets rewrites every non-NULL target in place. Used when the
// target archetype's rows are permuted without structural change.
func (s *SparseMatrixColumn) RemapTargets(fn func(uint32) uint32) {
	for k, tgt := range s.targets {
		if tgt != NullTarget {
			s.targets[k] = fn(tgt)
		}
	}
}

// NullTarget is the sentinel for sparse matrix targets.
const NullTarget = uint32(types.Null32)
