package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"farmflow/internal/auth"
	"farmflow/internal/ledger"
	"farmflow/internal/query"
)

type InsuranceHandler struct {
	Ledger *ledger.Service
	Query  *query.Service
}

func (h *InsuranceHandler) Register(r *gin.Engine, authed gin.HandlerFunc) {
	g := r.Group("/api/v1/insurance", authed)
	g.POST("/policy", h.purchase)
	g.GET("/policy", h.policy)
	g.POST("/claims", h.submitClaim)
	g.GET("/claims", h.listClaims)
	g.GET("/claims/:id", h.getClaim)
	g.POST("/claims/:id/process", h.processClaim)
	g.GET("/authority", h.authority)
	g.GET("/pool", h.pool)
}

// @Summary Purchase an insurance policy for the caller
// @Tags insurance
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/policy [post]
func (h *InsuranceHandler) purchase(c *gin.Context) {
	policy, err := h.Ledger.PurchaseInsurance(c.Request.Context(), auth.CallerIdentity(c))
	if err != nil {
		LedgerError(c, err)
		return
	}
	Ok(c, policy, nil)
}

// @Summary Policy snapshot for a farmer
// @Tags insurance
// @Produce json
// @Param farmer query string false "farmer identity, defaults to the caller"
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/policy [get]
func (h *InsuranceHandler) policy(c *gin.Context) {
	farmer := c.Query("farmer")
	if farmer == "" {
		farmer = auth.CallerIdentity(c)
	}
	policy, err := h.Query.PolicyFor(c.Request.Context(), farmer)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, policy, nil)
}

type submitClaimRequest struct {
	CropID      uint64 `json:"crop_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required"`
	Reason      string `json:"reason"`
	EvidenceRef string `json:"evidence_ref"`
}

// @Summary File an insurance claim
// @Tags insurance
// @Accept json
// @Produce json
// @Param request body submitClaimRequest true "claim"
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/claims [post]
func (h *InsuranceHandler) submitClaim(c *gin.Context) {
	var req submitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	claim, err := h.Ledger.SubmitClaim(c.Request.Context(), ledger.SubmitClaimInput{
		CropID:      req.CropID,
		Amount:      req.Amount,
		Reason:      req.Reason,
		EvidenceRef: req.EvidenceRef,
	}, auth.CallerIdentity(c))
	if err != nil {
		LedgerError(c, err)
		return
	}
	Ok(c, claim, nil)
}

// @Summary List claims in stable ascending id order
// @Tags insurance
// @Produce json
// @Param status query string false "pending, approved or rejected"
// @Param farmer query string false "filter by farmer identity"
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/claims [get]
func (h *InsuranceHandler) listClaims(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	items := make([]any, 0)
	var total int64
	if farmer := c.Query("farmer"); farmer != "" {
		claims, n, err := h.Query.FarmerClaims(c.Request.Context(), farmer, limit, offset)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		total = n
		for _, item := range claims {
			items = append(items, item)
		}
	} else {
		claims, n, err := h.Query.PendingClaims(c.Request.Context(), limit, offset)
		if err != nil {
			Error(c, http.StatusBadGateway, err.Error(), nil)
			return
		}
		total = n
		for _, item := range claims {
			items = append(items, item)
		}
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

// @Summary Claim snapshot
// @Tags insurance
// @Produce json
// @Param id path int true "claim id"
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/claims/{id} [get]
func (h *InsuranceHandler) getClaim(c *gin.Context) {
	claim, err := h.Query.GetClaim(c.Request.Context(), uint64Param(c, "id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, claim, nil)
}

type processClaimRequest struct {
	Approve bool `json:"approve"`
}

// @Summary Adjudicate a pending claim (authority only)
// @Tags insurance
// @Accept json
// @Produce json
// @Param id path int true "claim id"
// @Param request body processClaimRequest true "verdict"
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/claims/{id}/process [post]
func (h *InsuranceHandler) processClaim(c *gin.Context) {
	var req processClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	claim, err := h.Ledger.ProcessClaim(c.Request.Context(), uint64Param(c, "id"), req.Approve, auth.CallerIdentity(c))
	if err != nil {
		LedgerError(c, err)
		return
	}
	Ok(c, claim, nil)
}

// @Summary Current insurance authority identity
// @Tags insurance
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/authority [get]
func (h *InsuranceHandler) authority(c *gin.Context) {
	Ok(c, gin.H{"authority": h.Query.AuthorityIdentity()}, nil)
}

// @Summary Insurance pool balance
// @Tags insurance
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/insurance/pool [get]
func (h *InsuranceHandler) pool(c *gin.Context) {
	balance, err := h.Query.PoolBalance(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"balance": balance}, nil)
}
