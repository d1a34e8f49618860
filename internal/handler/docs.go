package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# FarmFlow Marketplace Service

Produce marketplace with an attached mutual-insurance pool.

## Auth

All /api/v1/* routes require a Bearer token. Mint one via
POST /api/v1/auth/token with an identity and a role (farmer, buyer,
authority, oracle). Health endpoints are public.

## Notable Routes

- GET  /healthz
- GET  /readyz
- GET  /swagger/index.html
- POST /api/v1/crops
- GET  /api/v1/crops?available=true
- POST /api/v1/crops/{id}/stock
- POST /api/v1/crops/{id}/price
- POST /api/v1/crops/{id}/risk
- POST /api/v1/crops/{id}/deactivate
- POST /api/v1/market/buy
- POST /api/v1/market/topup
- POST /api/v1/market/withdraw
- GET  /api/v1/market/purchases?role=buyer
- POST /api/v1/insurance/policy
- POST /api/v1/insurance/claims
- POST /api/v1/insurance/claims/{id}/process
- GET  /api/v1/insurance/claims?status=pending
- GET  /api/v1/reports/summary
- GET  /api/v1/reports/purchases/export
- GET  /api/v1/events/stream (websocket)
`)
	})
}
