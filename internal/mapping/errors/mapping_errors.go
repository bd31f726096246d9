package mappingerrors

import (
	"net/http"

	"payslip-system/internal/shared/apperror"
)

var (
	ErrMalformedInput = apperror.New(
		apperror.CodeInvalidArgument,
		"mapping input needs a header row and a label row",
		http.StatusBadRequest,
	)
	ErrEmptyHeaderRow = apperror.New(
		apperror.CodeInvalidArgument,
		"header row contains no column codes",
		http.StatusBadRequest,
	)
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidArgument,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidKind = apperror.New(
		apperror.CodeInvalidArgument,
		"payslip kind must be regular or bonus",
		http.StatusBadRequest,
	)
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidArgument,
		"unknown column category",
		http.StatusBadRequest,
	)
	ErrDuplicateHeaderName = apperror.New(
		apperror.CodeInvalidArgument,
		"the same header code is mapped more than once",
		http.StatusBadRequest,
	)
	ErrSwappedOrientation = apperror.New(
		apperror.CodeInvalidArgument,
		"header code and item label appear to be swapped",
		http.StatusBadRequest,
	)
	ErrMappingNotFound = apperror.New(
		apperror.CodeNotFound,
		"no header mapping configured for this company",
		http.StatusNotFound,
	)
	ErrUnrecognizedDocument = apperror.New(
		apperror.CodeInternal,
		"stored mapping document matches no known shape",
		http.StatusInternalServerError,
	)
	ErrDeleteNotConfirmed = apperror.New(
		apperror.CodeFailedPrecondition,
		"deleting a mapping disables ingestion for this company and must be confirmed",
		http.StatusPreconditionFailed,
	)
)
