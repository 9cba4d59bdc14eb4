package appaccesserrors

import (
	"net/http"

	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
	ErrMissingAppName = apperror.RequiredField("app_name")
)
