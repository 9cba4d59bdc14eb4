package deviceerrors

import (
	"net/http"

	"github.com/carsonjc04/Hive-Engine/internal/shared/apperror"
)

var (
	ErrDeviceSerialExists = apperror.New(
		apperror.CodeConflict,
		"Device with the same serial number already exists",
		http.StatusConflict,
	)
	ErrInvalidDeviceType = apperror.New(
		apperror.CodeInvalidInput,
		"Device type must be LAPTOP, MOBILE or TABLET",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"Invalid employee ID",
		http.StatusBadRequest,
	)
)
