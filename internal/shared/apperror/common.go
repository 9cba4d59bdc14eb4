package apperror

import "net/http"

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrConflict = New(
		CodeConflict,
		"Resource violates a uniqueness or reference constraint",
		http.StatusConflict,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	// ErrPublishUnavailable means the broker did not acknowledge a publish.
	// The caller still owns the event and must retry it.
	ErrPublishUnavailable = New(
		CodeServiceUnavailable,
		"Event broker is unavailable",
		http.StatusServiceUnavailable,
	)

	// ErrConsumerProcessing marks a consumer side effect that failed and must
	// be redelivered.
	ErrConsumerProcessing = New(
		CodeProcessingFailed,
		"Consumer failed to process event",
		http.StatusInternalServerError,
	)
)

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, field+" is required", http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, field+" is invalid", http.StatusBadRequest)
}
