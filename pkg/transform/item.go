package transform

import (
	"encoding/json"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
)

type ItemType string

const (
	ItemPost      ItemType = "post"
	ItemSeparator ItemType = "separator"
)

// RenderItem is one entry of the final feed: either a post or a separator that opens
// a run of posts by the same author. The ScoredItem fields are only meaningful for
// posts, UserID and User only for separators.
type RenderItem struct {
	Type ItemType

	content.ScoredItem

	UserID int
	User   *content.User
}

func (r RenderItem) IsPost() bool {
	return r.Type == ItemPost
}

// MarshalJSON emits {"type":"post", ...scored item} or {"type":"separator","userId","user"}.
func (r RenderItem) MarshalJSON() ([]byte, error) {
	if r.IsPost() {
		return json.Marshal(struct {
			Type ItemType `json:"type"`
			content.ScoredItem
		}{Type: r.Type, ScoredItem: r.ScoredItem})
	}

	return json.Marshal(struct {
		Type   ItemType      `json:"type"`
		UserID int           `json:"userId"`
		User   *content.User `json:"user,omitempty"`
	}{Type: r.Type, UserID: r.UserID, User: r.User})
}

// Posts returns the post entries of items, dropping separators.
func Posts(items []RenderItem) []content.ScoredItem {
	out := make([]content.ScoredItem, 0, len(items))
	for _, item := range items {
		if item.IsPost() {
			out = append(out, item.ScoredItem)
		}
	}
	return out
}
