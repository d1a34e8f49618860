package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmflow/internal/ledger"
	"farmflow/internal/query"
	"farmflow/internal/repository"
)

type ReportHandler struct {
	Ledger *ledger.Service
	Query  *query.Service
}

func (h *ReportHandler) Register(r *gin.Engine, authed gin.HandlerFunc) {
	g := r.Group("/api/v1/reports", authed)
	g.GET("/summary", h.summary)
	g.GET("/purchases/export", h.exportPurchases)
}

// @Summary Marketplace and pool aggregates
// @Tags reports
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/reports/summary [get]
func (h *ReportHandler) summary(c *gin.Context) {
	out, err := h.Query.Summary(c.Request.Context(), h.Ledger.Premium())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, out, nil)
}

// @Summary Export purchase history as XLSX
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param buyer query string false "filter by buyer"
// @Param farmer query string false "filter by farmer"
// @Success 200 {file} binary
// @Router /api/v1/reports/purchases/export [get]
func (h *ReportHandler) exportPurchases(c *gin.Context) {
	params := repository.ListPurchasesParams{
		Buyer:   strQueryPtr(c, "buyer"),
		Farmer:  strQueryPtr(c, "farmer"),
		OrderBy: "id",
		Asc:     boolPtr(true),
	}
	raw, err := h.Query.ExportPurchasesXLSX(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="purchases.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", raw)
}
