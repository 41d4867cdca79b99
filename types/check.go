package types

// Bounds is an inclusive value range for a bounds check.
type Bounds struct {
	Min float64
	Max float64
}

// CheckConfig enables advisory validation checks for a component. All checks
// are off by default and the configuration is immutable after the component
// is defined. Checks never run implicitly; they are executed only when the
// caller asks for a validation report.
type CheckConfig struct {
	// NaN flags IEEE NaN values. Float components only.
	NaN bool
	// Bounds flags values outside the inclusive range. Float components only.
	Bounds *Bounds
	// Null flags stored NULL sentinels. Pointer components only. This is a
	// reporting concern; whether a dangling pointer cascades or is nulled at
	// commit time is governed by the component's nullability, not by this
	// flag.
	Null bool
}

// Enabled reports whether any check is configured.
func (c CheckConfig) Enabled() bool {
	return c.NaN || c.Bounds != nil || c.Null
}
