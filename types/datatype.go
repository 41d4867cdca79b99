package types

// TypeKind is the coarse classification of a component's element type.
type TypeKind uint8

const (
	KindUint TypeKind = iota
	KindInt
	KindFloat
	KindPointer
	KindOpaque
)

func (k TypeKind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindPointer:
		return "pointer"
	case KindOpaque:
		return "opaque"
	}
	return "unknown"
}

// DataType describes the element type of a component. The set of types is
// closed: unsigned and signed integers, IEEE floats, row pointers into a
// target archetype, and fixed-size opaque payloads. A component's data type
// is fixed at definition time.
type DataType struct {
	Kind  TypeKind
	Width int // element size in bytes

	// Target is the archetype a pointer refers to. Only meaningful when
	// Kind is KindPointer.
	Target ArchetypeID
}

func Uint8() DataType   { return DataType{Kind: KindUint, Width: 1} }
func Uint16() DataType  { return DataType{Kind: KindUint, Width: 2} }
func Uint32() DataType  { return DataType{Kind: KindUint, Width: 4} }
func Uint64() DataType  { return DataType{Kind: KindUint, Width: 8} }
func Int8() DataType    { return DataType{Kind: KindInt, Width: 1} }
func Int16() DataType   { return DataType{Kind: KindInt, Width: 2} }
func Int32() DataType   { return DataType{Kind: KindInt, Width: 4} }
func Int64() DataType   { return DataType{Kind: KindInt, Width: 8} }
func Float32() DataType { return DataType{Kind: KindFloat, Width: 4} }
func Float64() DataType { return DataType{Kind: KindFloat, Width: 8} }

// PointerTo describes a 32-bit row pointer into the given archetype.
func PointerTo(target ArchetypeID) DataType {
	return DataType{Kind: KindPointer, Width: 4, Target: target}
}

// PointerTo16 describes a 16-bit row pointer. It caps the target archetype
// at 65535 rows but halves the pointer column footprint.
func PointerTo16(target ArchetypeID) DataType {
	return DataType{Kind: KindPointer, Width: 2, Target: target}
}

// PointerTo64 describes a 64-bit row pointer.
func PointerTo64(target ArchetypeID) DataType {
	return DataType{Kind: KindPointer, Width: 8, Target: target}
}

// Opaque describes a fixed-size payload of the given size in bytes. The
// engine moves opaque payloads around but never interprets them.
func Opaque(size int) DataType {
	return DataType{Kind: KindOpaque, Width: size}
}

// Valid reports whether the descriptor is a member of the closed type set.
func (d DataType) Valid() bool {
	switch d.Kind {
	case KindUint, KindInt:
		return d.Width == 1 || d.Width == 2 || d.Width == 4 || d.Width == 8
	case KindFloat:
		return d.Width == 4 || d.Width == 8
	case KindPointer:
		return d.Width == 2 || d.Width == 4 || d.Width == 8
	case KindOpaque:
		return d.Width > 0
	}
	return false
}

// Null returns the NULL sentinel for a pointer descriptor.
func (d DataType) Null() uint64 {
	return NullFor(d.Width)
}

// MaxRows returns the largest row count a table may reach while still being
// addressable by a pointer of this descriptor's width without colliding with
// the NULL sentinel.
func (d DataType) MaxRows() int {
	if d.Width >= 8 {
		// Bounded by the 32-bit row index used throughout the engine.
		return int(Null32)
	}
	return int(NullFor(d.Width))
}
