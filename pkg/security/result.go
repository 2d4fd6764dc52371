package security

// ValidationResult carries the outcome of a security validation.
// Valid is false iff Errors is non-empty; Warnings never affect Valid.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) addError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

func (r *ValidationResult) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func newResult() ValidationResult {
	return ValidationResult{Valid: true}
}
