// Package compliance defines the validation strictness modes.
package compliance

// Mode selects how aggressively the library rejects ambiguity.
//
// Strict mode prefers explicit failure over silent acceptance: legacy SRS
// shorthand is rejected and unverifiable proof stamps fail verification.
// Permissive mode applies the documented normalization policy (legacy SRS
// rewritten to canonical URI form) and surfaces the rest as warnings.
//
// Permissive is the zero value and the default during the migration window.
type Mode int

const (
	Permissive Mode = iota
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "permissive"
}
