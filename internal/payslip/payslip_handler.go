package payslip

import (
	"net/http"

	"payslip-system/internal/shared/apperror"
	"payslip-system/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")
	uploadID := c.Query("upload_id")

	// Hidden line items stay hidden for the employee-facing view.
	includeHidden := c.GetString("role") != "employee"

	resp, err := h.service.GetAll(c.Request.Context(), companyID, uploadID, includeHidden)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	companyID := c.GetString("company_id")
	id := c.Param("id")

	// Hidden line items stay hidden for the employee-facing view.
	includeHidden := c.GetString("role") != "employee"

	resp, err := h.service.GetByID(c.Request.Context(), companyID, id, includeHidden)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) BackfillUsers(c *gin.Context) {
	companyID := c.GetString("company_id")

	resp, err := h.service.BackfillUsers(c.Request.Context(), companyID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
