package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the base interface for all application errors
type AppError interface {
	error
	HTTPStatus() int
	Code() string
}

// InvalidFormatError represents an upload that could not be read as tabular data
type InvalidFormatError struct {
	Filename string
	Cause    error
}

func (e *InvalidFormatError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("file '%s' is not readable as tabular data: %v", e.Filename, e.Cause)
	}
	return fmt.Sprintf("input is not readable as tabular data: %v", e.Cause)
}

func (e *InvalidFormatError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *InvalidFormatError) Code() string {
	return "INVALID_FORMAT"
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Cause
}

// NewInvalidFormatError creates a new InvalidFormatError
func NewInvalidFormatError(filename string, cause error) *InvalidFormatError {
	return &InvalidFormatError{Filename: filename, Cause: cause}
}

// MissingColumnsError represents a tabular input lacking required headers
type MissingColumnsError struct {
	Filename string
	Missing  []string
}

func (e *MissingColumnsError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("file '%s' is missing required columns: %v", e.Filename, e.Missing)
	}
	return fmt.Sprintf("input is missing required columns: %v", e.Missing)
}

func (e *MissingColumnsError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *MissingColumnsError) Code() string {
	return "MISSING_COLUMNS"
}

// NewMissingColumnsError creates a new MissingColumnsError
func NewMissingColumnsError(filename string, missing []string) *MissingColumnsError {
	return &MissingColumnsError{Filename: filename, Missing: missing}
}

// ConfigurationError represents a missing or invalid upstream credential/setting
type ConfigurationError struct {
	Setting string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Setting != "" {
		return fmt.Sprintf("configuration error (%s): %s", e.Setting, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigurationError) HTTPStatus() int {
	return http.StatusServiceUnavailable
}

func (e *ConfigurationError) Code() string {
	return "CONFIGURATION_ERROR"
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(setting, message string) *ConfigurationError {
	return &ConfigurationError{Setting: setting, Message: message}
}

// UpstreamError represents a non-success or malformed response from the generation endpoint
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error: %s", e.Message)
}

func (e *UpstreamError) HTTPStatus() int {
	return http.StatusBadGateway
}

func (e *UpstreamError) Code() string {
	return "UPSTREAM_ERROR"
}

// NewUpstreamError creates a new UpstreamError
func NewUpstreamError(statusCode int, message string) *UpstreamError {
	return &UpstreamError{StatusCode: statusCode, Message: message}
}

// TimeoutError represents an upstream call that exceeded its deadline
type TimeoutError struct {
	Operation string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Operation)
}

func (e *TimeoutError) HTTPStatus() int {
	return http.StatusGatewayTimeout
}

func (e *TimeoutError) Code() string {
	return "TIMEOUT"
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(operation string) *TimeoutError {
	return &TimeoutError{Operation: operation}
}

// QuotaExceededError represents a caller that is not entitled to generate
type QuotaExceededError struct {
	Used  int
	Quota int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("generation quota exceeded (%d of %d used this period)", e.Used, e.Quota)
}

func (e *QuotaExceededError) HTTPStatus() int {
	return http.StatusPaymentRequired
}

func (e *QuotaExceededError) Code() string {
	return "QUOTA_EXCEEDED"
}

// NewQuotaExceededError creates a new QuotaExceededError
func NewQuotaExceededError(used, quota int) *QuotaExceededError {
	return &QuotaExceededError{Used: used, Quota: quota}
}

// NotFoundError represents a resource that was not found
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) HTTPStatus() int {
	return http.StatusNotFound
}

func (e *NotFoundError) Code() string {
	return "NOT_FOUND"
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents invalid input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

func (e *ValidationError) Code() string {
	return "VALIDATION_ERROR"
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnauthorizedError represents authentication failures
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unauthorized: %s", e.Reason)
	}
	return "unauthorized"
}

func (e *UnauthorizedError) HTTPStatus() int {
	return http.StatusUnauthorized
}

func (e *UnauthorizedError) Code() string {
	return "UNAUTHORIZED"
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(reason string) *UnauthorizedError {
	return &UnauthorizedError{Reason: reason}
}

// PermissionError represents insufficient permissions
type PermissionError struct {
	Action   string
	Resource string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: cannot %s %s", e.Action, e.Resource)
}

func (e *PermissionError) HTTPStatus() int {
	return http.StatusForbidden
}

func (e *PermissionError) Code() string {
	return "PERMISSION_DENIED"
}

// NewPermissionError creates a new PermissionError
func NewPermissionError(action, resource string) *PermissionError {
	return &PermissionError{Action: action, Resource: resource}
}

// ConflictError represents a conflict with existing data
type ConflictError struct {
	Resource string
	Field    string
	Value    string
}

func (e *ConflictError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s already exists with %s='%s'", e.Resource, e.Field, e.Value)
	}
	return fmt.Sprintf("%s already exists", e.Resource)
}

func (e *ConflictError) HTTPStatus() int {
	return http.StatusConflict
}

func (e *ConflictError) Code() string {
	return "CONFLICT"
}

// NewConflictError creates a new ConflictError
func NewConflictError(resource, field, value string) *ConflictError {
	return &ConflictError{Resource: resource, Field: field, Value: value}
}

// InternalError represents unexpected server errors
type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal error: %s (caused by: %v)", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal error: %s", e.Message)
}

func (e *InternalError) HTTPStatus() int {
	return http.StatusInternalServerError
}

func (e *InternalError) Code() string {
	return "INTERNAL_ERROR"
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{Message: message, Cause: cause}
}

// Helper functions for error checking

// IsInvalidFormat checks if an error is an InvalidFormatError
func IsInvalidFormat(err error) bool {
	var invalidFormat *InvalidFormatError
	return errors.As(err, &invalidFormat)
}

// IsMissingColumns checks if an error is a MissingColumnsError
func IsMissingColumns(err error) bool {
	var missingColumns *MissingColumnsError
	return errors.As(err, &missingColumns)
}

// IsConfiguration checks if an error is a ConfigurationError
func IsConfiguration(err error) bool {
	var configuration *ConfigurationError
	return errors.As(err, &configuration)
}

// IsUpstream checks if an error is an UpstreamError
func IsUpstream(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}

// IsTimeout checks if an error is a TimeoutError
func IsTimeout(err error) bool {
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}

// IsQuotaExceeded checks if an error is a QuotaExceededError
func IsQuotaExceeded(err error) bool {
	var quota *QuotaExceededError
	return errors.As(err, &quota)
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsValidation checks if an error is a ValidationError
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}

// IsUnauthorized checks if an error is an UnauthorizedError
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// GetHTTPStatus returns the HTTP status code for an error
// Returns 500 if the error doesn't implement AppError
func GetHTTPStatus(err error) int {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// GetErrorCode returns the error code for an error
// Returns "UNKNOWN_ERROR" if the error doesn't implement AppError
func GetErrorCode(err error) string {
	var appErr AppError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return "UNKNOWN_ERROR"
}
