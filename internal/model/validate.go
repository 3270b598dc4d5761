package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidatePitchData checks the structured pitch facts before a session starts.
// It returns a *ValidationError if any rules fail, or nil if the pitch is valid.
func ValidatePitchData(p *PitchData) error {
	var ve ValidationError

	// Company name: required and at most 120 characters.
	name := strings.TrimSpace(p.CompanyName)
	if name == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "companyName", Message: "is required"})
	} else if len([]rune(name)) > 120 {
		ve.Errors = append(ve.Errors, FieldError{Field: "companyName", Message: "must be 120 characters or fewer"})
	}

	// Ask: positive and bounded. Nobody raises a billion dollars in the tank.
	if p.AmountRaising <= 0 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "amountRaising",
			Message: fmt.Sprintf("must be positive, got %d", p.AmountRaising),
		})
	} else if p.AmountRaising > 100_000_000 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "amountRaising",
			Message: "must be $100M or less",
		})
	}

	// Equity: a percentage. Zero means the ask implies the valuation.
	if p.EquityPercent < 0 || p.EquityPercent > 100 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "equityPercent",
			Message: fmt.Sprintf("must be between 0 and 100, got %g", p.EquityPercent),
		})
	}

	// Proof type: must be a valid enum value when set (closed set).
	if p.ProofType != "" && !p.ProofType.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "proofType",
			Message: fmt.Sprintf("invalid value %q", p.ProofType),
		})
	}

	// Description: bounded so prompts stay a sane size.
	if len([]rune(p.CompanyDescription)) > 2000 {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "companyDescription",
			Message: "must be 2000 characters or fewer",
		})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
