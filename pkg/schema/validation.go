package schema

import "fmt"

// ValidationSeverity indicates whether an issue is an error or warning.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// IssueType tags a validation issue with the check that produced it.
// Errors always block execution; warnings never do.
type IssueType string

const (
	IssueEmptyFlow    IssueType = "empty-flow"
	IssueDuplicateID  IssueType = "duplicate-id"
	IssueMissingStart IssueType = "missing-start"
	IssueCycle        IssueType = "cycle"
	IssueDanglingEdge IssueType = "dangling-edge"
	IssueIsolatedNode IssueType = "isolated-node"
	IssueUnreachable  IssueType = "unreachable"
	IssueUnknownType  IssueType = "unknown-type"
	IssueConfig       IssueType = "config"
	IssueExpression   IssueType = "expression"
	IssueSchedule     IssueType = "schedule"
	IssueParse        IssueType = "parse"
	IssueDepth        IssueType = "depth"
)

// ValidationIssue is a single validation problem with node context.
type ValidationIssue struct {
	Type     IssueType          `json:"type"`
	NodeID   string             `json:"nodeId,omitempty"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

// ValidationResult aggregates all issues from the validation pipeline.
// Checks accumulate into one result; no check short-circuits another.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// Valid returns true if there are no errors (warnings are acceptable).
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error-severity issue.
func (r *ValidationResult) AddError(typ IssueType, nodeID, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		Type: typ, NodeID: nodeID, Message: message, Severity: SeverityError,
	})
}

// AddWarning appends a warning-severity issue.
func (r *ValidationResult) AddWarning(typ IssueType, nodeID, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		Type: typ, NodeID: nodeID, Message: message, Severity: SeverityWarning,
	})
}

// Merge combines another ValidationResult into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// HasIssue reports whether any error carries the given type tag.
func (r *ValidationResult) HasIssue(typ IssueType) bool {
	for _, e := range r.Errors {
		if e.Type == typ {
			return true
		}
	}
	return false
}

// ToError converts the result to a FlowError if invalid, nil if valid.
func (r *ValidationResult) ToError() error {
	if r.Valid() {
		return nil
	}

	msg := r.Errors[0].Message
	if len(r.Errors) > 1 {
		msg = fmt.Sprintf("validation failed with %d errors", len(r.Errors))
	}

	return NewError(ErrCodeValidation, msg).
		WithDetails(map[string]any{
			"error_count":   len(r.Errors),
			"warning_count": len(r.Warnings),
			"errors":        r.Errors,
			"warnings":      r.Warnings,
		})
}
