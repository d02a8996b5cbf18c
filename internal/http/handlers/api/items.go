package api

import (
	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateItemRequest is the new-listing payload. Price is optional for
// swap-only listings.
type CreateItemRequest struct {
	Name            string        `json:"name" binding:"required"`
	Description     string        `json:"description"`
	Category        string        `json:"category" binding:"required"`
	Price           *models.Money `json:"price"`
	DesiredSwapItem string        `json:"desired_swap_item"`
	Condition       string        `json:"condition"`
}

// UpdateItemRequest carries listing edits. Absent fields stay as is.
type UpdateItemRequest struct {
	Name            *string       `json:"name"`
	Description     *string       `json:"description"`
	Category        *string       `json:"category"`
	Price           *models.Money `json:"price"`
	ClearPrice      bool          `json:"clear_price"`
	DesiredSwapItem *string       `json:"desired_swap_item"`
	Condition       *string       `json:"condition"`
	IsActive        *bool         `json:"is_active"`
}

// ListItems returns the browsable catalog.
func (h *Handler) ListItems(c *gin.Context) {
	page, pageSize := paginationFromQuery(c)
	filter := repository.ItemListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		Status:     c.Query("status"),
		OnlyActive: true,
	}
	items, total, err := h.ItemService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "catalog fetch failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"items": items}, buildPagination(page, pageSize, total))
}

// MyItems returns the caller's own listings, inactive ones included.
func (h *Handler) MyItems(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := paginationFromQuery(c)
	items, total, err := h.ItemService.List(repository.ItemListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "catalog fetch failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"items": items}, buildPagination(page, pageSize, total))
}

// GetItem returns one listing with its mean rating.
func (h *Handler) GetItem(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	item, avg, err := h.ItemService.GetWithRating(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, itemErrorRules, response.CodeInternal, "item fetch failed")
		return
	}
	response.Success(c, gin.H{"item": item, "average_rating": avg})
}

// ListCategories returns the selectable categories.
func (h *Handler) ListCategories(c *gin.Context) {
	response.Success(c, gin.H{"categories": h.ItemService.Categories()})
}

// CreateItem publishes a listing.
func (h *Handler) CreateItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	item, err := h.ItemService.Create(service.CreateItemInput{
		SellerID:        uid,
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Price:           req.Price,
		DesiredSwapItem: req.DesiredSwapItem,
		Condition:       req.Condition,
	})
	if err != nil {
		respondWithMappedError(c, err, itemErrorRules, response.CodeInternal, "listing create failed")
		return
	}
	response.Success(c, gin.H{"item": item})
}

// UpdateItem edits the caller's listing.
func (h *Handler) UpdateItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	item, err := h.ItemService.Update(id, uid, service.UpdateItemInput{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Price:           req.Price,
		ClearPrice:      req.ClearPrice,
		DesiredSwapItem: req.DesiredSwapItem,
		Condition:       req.Condition,
		IsActive:        req.IsActive,
	})
	if err != nil {
		respondWithMappedError(c, err, itemErrorRules, response.CodeInternal, "listing update failed")
		return
	}
	response.Success(c, gin.H{"item": item})
}

// DeleteItem removes the caller's listing.
func (h *Handler) DeleteItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.ItemService.Delete(id, uid); err != nil {
		respondWithMappedError(c, err, itemErrorRules, response.CodeInternal, "listing delete failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
