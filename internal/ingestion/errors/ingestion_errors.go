package ingestionerrors

import (
	"net/http"

	"payslip-system/internal/shared/apperror"
)

var (
	ErrUploadIDRequired = apperror.New(
		apperror.CodeInvalidArgument,
		"upload id is required",
		http.StatusBadRequest,
	)
	ErrFileURLRequired = apperror.New(
		apperror.CodeInvalidArgument,
		"file url is required",
		http.StatusBadRequest,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidArgument,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidPaymentDate = apperror.New(
		apperror.CodeInvalidArgument,
		"invalid payment date, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrJobNotFound = apperror.New(
		apperror.CodeNotFound,
		"ingestion job not found",
		http.StatusNotFound,
	)
	ErrDuplicateUpload = apperror.New(
		apperror.CodeConflict,
		"this upload id has already been submitted",
		http.StatusConflict,
	)
	ErrMissingMapping = apperror.New(
		apperror.CodeFailedPrecondition,
		"no header mapping configured for this company",
		http.StatusPreconditionFailed,
	)
	ErrNoEmployeeCodeColumn = apperror.New(
		apperror.CodeFailedPrecondition,
		"mapping does not define an employee code column",
		http.StatusPreconditionFailed,
	)
	ErrNoResolvableColumns = apperror.New(
		apperror.CodeFailedPrecondition,
		"none of the mapped columns are present in the file",
		http.StatusPreconditionFailed,
	)
	ErrEmptyFile = apperror.New(
		apperror.CodeInvalidArgument,
		"file contains no data rows",
		http.StatusBadRequest,
	)
	ErrDownloadFailed = apperror.New(
		apperror.CodeInternal,
		"source file could not be downloaded",
		http.StatusBadGateway,
	)
	ErrUnsupportedFile = apperror.New(
		apperror.CodeInvalidArgument,
		"file format is not supported, expected CSV or XLSX",
		http.StatusBadRequest,
	)
)
