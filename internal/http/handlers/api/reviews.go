package api

import (
	"github.com/educycle/marketplace/internal/http/response"
	"github.com/educycle/marketplace/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewRequest creates or edits a review.
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// ListItemReviews returns an item's reviews with the mean rating.
func (h *Handler) ListItemReviews(c *gin.Context) {
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	reviews, avg, err := h.ReviewService.ListByItem(itemID)
	if err != nil {
		respondError(c, response.CodeInternal, "review fetch failed", err)
		return
	}
	response.Success(c, gin.H{"reviews": reviews, "average_rating": avg})
}

// CreateReview posts a review on an item. One per user per item.
func (h *Handler) CreateReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	review, err := h.ReviewService.Create(service.CreateReviewInput{
		ItemID:     itemID,
		ReviewerID: uid,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		respondWithMappedError(c, err, reviewErrorRules, response.CodeInternal, "review create failed")
		return
	}
	response.Success(c, gin.H{"review": review})
}

// UpdateReview edits the caller's review.
func (h *Handler) UpdateReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	review, err := h.ReviewService.Update(id, uid, req.Rating, req.Comment)
	if err != nil {
		respondWithMappedError(c, err, reviewErrorRules, response.CodeInternal, "review update failed")
		return
	}
	response.Success(c, gin.H{"review": review})
}

// DeleteReview removes the caller's review.
func (h *Handler) DeleteReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.ReviewService.Delete(id, uid); err != nil {
		respondWithMappedError(c, err, reviewErrorRules, response.CodeInternal, "review delete failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
