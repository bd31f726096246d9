package employeeerrors

import (
	"net/http"

	"payslip-system/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidArgument,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrEmployeeCodeRequired = apperror.New(
		apperror.CodeInvalidArgument,
		"employee code is required",
		http.StatusBadRequest,
	)
)
