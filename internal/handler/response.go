package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmflow/internal/ledger"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// LedgerError maps the core failure taxonomy onto HTTP statuses: permission
// failures to 403, precondition conflicts to 409, validation to 400, and
// everything else to 502 as an infrastructure fault.
func LedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized), errors.Is(err, ledger.ErrNotOwner):
		Error(c, http.StatusForbidden, err.Error(), nil)
	case ledger.IsPrecondition(err):
		Error(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrRiskOutOfRange),
		errors.Is(err, ledger.ErrIdentityRequired):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ledger.ErrCropNotFound), errors.Is(err, ledger.ErrClaimNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	default:
		Error(c, http.StatusBadGateway, err.Error(), nil)
	}
}
