package shared

import "fmt"

// DomainError is an operator-facing rejection carrying a stable machine
// code. The HTTP layer renders Code into its error envelope; Message is
// safe to show verbatim. DomainError values declared as package sentinels
// still compare by identity under errors.Is.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDomainError creates a coded rejection
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}
