package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmflow/internal/auth"
	"farmflow/internal/ledger"
	"farmflow/internal/query"
	"farmflow/internal/repository"
)

type MarketHandler struct {
	Ledger *ledger.Service
	Query  *query.Service
}

func (h *MarketHandler) Register(r *gin.Engine, authed gin.HandlerFunc) {
	g := r.Group("/api/v1/market", authed)
	g.POST("/buy", h.buy)
	g.POST("/topup", h.topUp)
	g.POST("/withdraw", h.withdraw)
	g.GET("/balance", h.balance)
	g.GET("/purchases", h.purchases)
}

type buyRequest struct {
	CropID   uint64 `json:"crop_id" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
}

// @Summary Buy a crop quantity, all-or-nothing
// @Tags market
// @Accept json
// @Produce json
// @Param request body buyRequest true "crop and quantity"
// @Success 200 {object} map[string]any
// @Router /api/v1/market/buy [post]
func (h *MarketHandler) buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	purchase, err := h.Ledger.BuyCrop(c.Request.Context(), req.CropID, req.Quantity, auth.CallerIdentity(c))
	if err != nil {
		LedgerError(c, err)
		return
	}
	Ok(c, purchase, nil)
}

// @Summary Top up the caller's buyer balance
// @Tags market
// @Accept json
// @Param request body amountRequest true "amount"
// @Success 200 {object} map[string]any
// @Router /api/v1/market/topup [post]
func (h *MarketHandler) topUp(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	caller := auth.CallerIdentity(c)
	if err := h.Ledger.TopUpBalance(c.Request.Context(), caller, req.Amount); err != nil {
		LedgerError(c, err)
		return
	}
	balances, _ := h.Query.BalancesFor(c.Request.Context(), caller)
	Ok(c, balances, nil)
}

// @Summary Withdraw from the caller's farmer balance
// @Tags market
// @Accept json
// @Param request body amountRequest true "amount"
// @Success 200 {object} map[string]any
// @Router /api/v1/market/withdraw [post]
func (h *MarketHandler) withdraw(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	caller := auth.CallerIdentity(c)
	if err := h.Ledger.WithdrawFarmerBalance(c.Request.Context(), caller, req.Amount); err != nil {
		LedgerError(c, err)
		return
	}
	balances, _ := h.Query.BalancesFor(c.Request.Context(), caller)
	Ok(c, balances, nil)
}

// @Summary Caller's buyer and farmer balances
// @Tags market
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/market/balance [get]
func (h *MarketHandler) balance(c *gin.Context) {
	balances, err := h.Query.BalancesFor(c.Request.Context(), auth.CallerIdentity(c))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, balances, nil)
}

// @Summary Caller's purchase history
// @Tags market
// @Produce json
// @Param role query string false "buyer (default) or farmer side of the history"
// @Success 200 {object} map[string]any
// @Router /api/v1/market/purchases [get]
func (h *MarketHandler) purchases(c *gin.Context) {
	caller := auth.CallerIdentity(c)
	params := repository.ListPurchasesParams{
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
		OrderBy: "id",
		Asc:     boolPtr(true),
	}
	if c.Query("role") == "farmer" {
		params.Farmer = &caller
	} else {
		params.Buyer = &caller
	}
	items, total, err := h.Query.Purchases(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}
