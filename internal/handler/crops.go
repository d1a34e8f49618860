package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmflow/internal/auth"
	"farmflow/internal/ledger"
	"farmflow/internal/query"
	"farmflow/internal/repository"
)

type CropHandler struct {
	Ledger *ledger.Service
	Query  *query.Service
}

func (h *CropHandler) Register(r *gin.Engine, authed gin.HandlerFunc) {
	g := r.Group("/api/v1/crops", authed)
	g.POST("", h.add)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("/:id/stock", h.addStock)
	g.POST("/:id/price", h.changePrice)
	g.POST("/:id/risk", h.updateRisk)
	g.POST("/:id/deactivate", h.deactivate)
}

type addCropRequest struct {
	Name        string   `json:"name" binding:"required"`
	BasePrice   int64    `json:"base_price" binding:"required"`
	Stock       int64    `json:"stock"`
	ImageRef    string   `json:"image_ref"`
	LocationRef string   `json:"location_ref"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// @Summary List a new crop
// @Tags crops
// @Accept json
// @Produce json
// @Param request body addCropRequest true "crop"
// @Success 200 {object} map[string]any
// @Router /api/v1/crops [post]
func (h *CropHandler) add(c *gin.Context) {
	var req addCropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	id, err := h.Ledger.AddCrop(c.Request.Context(), ledger.AddCropInput{
		Name:        req.Name,
		BasePrice:   req.BasePrice,
		Stock:       req.Stock,
		ImageRef:    req.ImageRef,
		LocationRef: req.LocationRef,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	}, auth.CallerIdentity(c))
	if err != nil {
		LedgerError(c, err)
		return
	}
	Ok(c, gin.H{"crop_id": id}, nil)
}

// @Summary List crops
// @Tags crops
// @Produce json
// @Param available query bool false "only active crops with stock"
// @Param owner query string false "filter by owner"
// @Success 200 {object} map[string]any
// @Router /api/v1/crops [get]
func (h *CropHandler) list(c *gin.Context) {
	params := repository.ListCropsParams{
		Owner:         strQueryPtr(c, "owner"),
		AvailableOnly: boolQueryDefault(c, "available", false),
		Limit:         intQuery(c, "limit", 50),
		Offset:        intQuery(c, "offset", 0),
		OrderBy:       "id",
		Asc:           boolPtr(true),
	}
	items, total, err := h.Query.ListCrops(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

// @Summary Crop snapshot
// @Tags crops
// @Produce json
// @Param id path int true "crop id"
// @Success 200 {object} map[string]any
// @Router /api/v1/crops/{id} [get]
func (h *CropHandler) get(c *gin.Context) {
	snap, err := h.Query.GetCrop(c.Request.Context(), uint64Param(c, "id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	// A nonexistent id intentionally yields the zero snapshot.
	Ok(c, snap, nil)
}

type amountRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// @Summary Add stock to an owned crop
// @Tags crops
// @Accept json
// @Param id path int true "crop id"
// @Param request body amountRequest true "amount"
// @Success 200 {object} map[string]any
// @Router /api/v1/crops/{id}/stock [post]
func (h *CropHandler) addStock(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	id := uint64Param(c, "id")
	if err := h.Ledger.AddStock(c.Request.Context(), id, req.Amount, auth.CallerIdentity(c)); err != nil {
		LedgerError(c, err)
		return
	}
	snap, _ := h.Query.GetCrop(c.Request.Context(), id)
	Ok(c, snap, nil)
}

type changePriceRequest struct {
	NewPrice int64 `json:"new_price" binding:"required"`
}

// @Summary Manually override crop price
// @Tags crops
// @Accept json
// @Param id path int true "crop id"
// @Param request body changePriceRequest true "new price"
// @Success 200 {object} map[string]any
// @Router /api/v1/crops/{id}/price [post]
func (h *CropHandler) changePrice(c *gin.Context) {
	var req changePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	id := uint64Param(c, "id")
	if err := h.Ledger.ChangePrice(c.Request.Context(), id, req.NewPrice, auth.CallerIdentity(c)); err != nil {
		LedgerError(c, err)
		return
	}
	snap, _ := h.Query.GetCrop(c.Request.Context(), id)
	Ok(c, snap, nil)
}

type updateRiskRequest struct {
	RiskScore int64 `json:"risk_score"`
}

// @Summary Apply a risk score to a crop
// @Tags crops
// @Accept json
// @Param id path int true "crop id"
// @Param request body updateRiskRequest true "risk score in [0,1000]"
// @Success 200 {object} map[string]any
// @Router /api/v1/crops/{id}/risk [post]
func (h *CropHandler) updateRisk(c *gin.Context) {
	var req updateRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	id := uint64Param(c, "id")
	err := h.Ledger.UpdateCropRisk(c.Request.Context(), id, req.RiskScore, auth.CallerIdentity(c), nil)
	if err != nil {
		LedgerError(c, err)
		return
	}
	snap, _ := h.Query.GetCrop(c.Request.Context(), id)
	Ok(c, snap, nil)
}

// @Summary Deactivate an owned crop
// @Tags crops
// @Param id path int true "crop id"
// @Success 200 {object} map[string]any
// @Router /api/v1/crops/{id}/deactivate [post]
func (h *CropHandler) deactivate(c *gin.Context) {
	id := uint64Param(c, "id")
	if err := h.Ledger.DeactivateCrop(c.Request.Context(), id, auth.CallerIdentity(c)); err != nil {
		LedgerError(c, err)
		return
	}
	Ok(c, gin.H{"crop_id": id, "active": false}, nil)
}
