package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map these to HTTP
// status codes; repositories never return them directly.
var (
	// Exam
	ErrExamNotFound     = errors.New("exam not found")
	ErrExamNotPublished = errors.New("exam is not published")
	ErrExamHasAttempts  = errors.New("exam has existing attempts")

	// Question
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidOption    = errors.New("selected option does not belong to question")

	// Attempt
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrAttemptAlreadyCompleted = errors.New("attempt already completed")

	// Feedback
	ErrFeedbackNotFound = errors.New("feedback not found")

	// User
	ErrUserNotFound = errors.New("user not found")

	// Generic
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrInternalError    = errors.New("internal error")
)

// PermissionError carries who tried to do what to which resource.
type PermissionError struct {
	UserID     string
	ResourceID uint
	Resource   string
	Action     string
	Reason     string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %d: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

func (e *PermissionError) Unwrap() error {
	return ErrForbidden
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// BusinessRuleError signals a domain rule violation that is not a permission
// or validation problem (HTTP 422 at the boundary).
type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}
