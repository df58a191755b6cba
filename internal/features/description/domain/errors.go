package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("session not found")

// ErrorKind classifies pipeline failures.
type ErrorKind int

const (
	ErrorKindMissingInput ErrorKind = iota + 1
	ErrorKindMissingPrecondition
	ErrorKindRemoteCallFailure
	ErrorKindCredentialsMissing
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindMissingInput:
		return "MissingInput"
	case ErrorKindMissingPrecondition:
		return "MissingPrecondition"
	case ErrorKindRemoteCallFailure:
		return "RemoteCallFailure"
	case ErrorKindCredentialsMissing:
		return "CredentialsMissing"
	default:
		return "Unknown"
	}
}

// StageError is the error returned by prompt builders and the orchestrator.
type StageError struct {
	Kind    ErrorKind
	Stage   Stage
	Fields  []string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewMissingInputError reports empty required fields.
func NewMissingInputError(stage Stage, fields ...string) *StageError {
	msg := "Please fill in all the product data fields before generating a description."
	if stage != StageGenerate {
		msg = fmt.Sprintf("Missing required input for %s: %s", stage, strings.Join(fields, ", "))
	}
	return &StageError{Kind: ErrorKindMissingInput, Stage: stage, Fields: fields, Message: msg}
}

// NewMissingPreconditionError reports a stage triggered before its inputs exist.
func NewMissingPreconditionError(stage Stage, what string) *StageError {
	return &StageError{
		Kind:    ErrorKindMissingPrecondition,
		Stage:   stage,
		Message: fmt.Sprintf("Cannot %s yet: %s", stage, what),
	}
}

// NewRemoteCallError wraps a failure of the inference service.
func NewRemoteCallError(stage Stage, err error) *StageError {
	return &StageError{
		Kind:    ErrorKindRemoteCallFailure,
		Stage:   stage,
		Message: fmt.Sprintf("An error occurred while %s the description", stageVerb(stage)),
		Err:     err,
	}
}

// NewCredentialsMissingError reports that the provider credentials are not configured.
func NewCredentialsMissingError(missing ...string) *StageError {
	return &StageError{
		Kind:    ErrorKindCredentialsMissing,
		Fields:  missing,
		Message: fmt.Sprintf("API credentials are not set. Please check your environment variables (%s).", strings.Join(missing, ", ")),
	}
}

// KindOf returns the ErrorKind of err, or 0 if err is not a StageError.
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func IsMissingInput(err error) bool        { return KindOf(err) == ErrorKindMissingInput }
func IsMissingPrecondition(err error) bool { return KindOf(err) == ErrorKindMissingPrecondition }
func IsRemoteCallFailure(err error) bool   { return KindOf(err) == ErrorKindRemoteCallFailure }
func IsCredentialsMissing(err error) bool  { return KindOf(err) == ErrorKindCredentialsMissing }

func stageVerb(stage Stage) string {
	switch stage {
	case StageGenerate:
		return "generating"
	case StageTranslate:
		return "translating"
	case StageCustomize:
		return "customizing"
	default:
		return "processing"
	}
}
