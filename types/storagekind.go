package types

// StorageKind selects the physical layout backing a component. The engine
// dispatches on this tag wherever it must move data, rewrite pointers, or
// apply checks.
type StorageKind uint8

const (
	// Attribute stores one element per row in a contiguous column.
	Attribute StorageKind = iota
	// GlobalConstant stores a single element shared by every row.
	GlobalConstant
	// SparseMatrix stores a variable-length list of (target, value) pairs
	// per row in compressed-row form.
	SparseMatrix
)

func (k StorageKind) String() string {
	switch k {
	case Attribute:
		return "attribute"
	case GlobalConstant:
		return "global"
	case SparseMatrix:
		return "sparse"
	}
	return "unknown"
}
