package paysliperrors

import (
	"net/http"

	"payslip-system/internal/shared/apperror"
)

var (
	ErrPayslipNotFound = apperror.New(
		apperror.CodeNotFound,
		"payslip not found",
		http.StatusNotFound,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidArgument,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidPayslipID = apperror.New(
		apperror.CodeInvalidArgument,
		"invalid payslip id",
		http.StatusBadRequest,
	)
)
