package services

import "fmt"

// ErrorCode is the stable, client-facing classification of a rejected request.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeAuthorization ErrorCode = "AUTHORIZATION_ERROR"
	CodeStateConflict ErrorCode = "STATE_CONFLICT"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeDependency    ErrorCode = "DEPENDENCY_FAILURE"
)

type ServiceError struct {
	Code    ErrorCode
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func validationError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func authorizationError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeAuthorization, Message: fmt.Sprintf(format, args...)}
}

func stateConflictError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeStateConflict, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func dependencyError(format string, args ...interface{}) *ServiceError {
	return &ServiceError{Code: CodeDependency, Message: fmt.Sprintf(format, args...)}
}
