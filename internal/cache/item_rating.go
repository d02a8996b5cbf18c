package cache

import (
	"context"
	"fmt"
	"time"
)

const itemRatingCacheTTL = 10 * time.Minute

// ItemRatingState is the cached rating snapshot for a listing. It is
// invalidated whenever a review for the item changes.
type ItemRatingState struct {
	ItemID    uint    `json:"item_id"`
	Average   float64 `json:"average"`
	UpdatedAt int64   `json:"updated_at"`
}

func itemRatingKey(itemID uint) string {
	return fmt.Sprintf("item:rating:%d", itemID)
}

// GetItemRating reads the cached rating snapshot.
func GetItemRating(ctx context.Context, itemID uint) (*ItemRatingState, bool, error) {
	if itemID == 0 {
		return nil, false, nil
	}
	var state ItemRatingState
	hit, err := GetJSON(ctx, itemRatingKey(itemID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetItemRating writes the rating snapshot.
func SetItemRating(ctx context.Context, state *ItemRatingState) error {
	if state == nil || state.ItemID == 0 {
		return nil
	}
	state.UpdatedAt = time.Now().Unix()
	return SetJSON(ctx, itemRatingKey(state.ItemID), state, itemRatingCacheTTL)
}

// DelItemRating drops the rating snapshot.
func DelItemRating(ctx context.Context, itemID uint) error {
	if itemID == 0 {
		return nil
	}
	return Del(ctx, itemRatingKey(itemID))
}
