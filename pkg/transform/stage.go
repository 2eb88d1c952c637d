package transform

import (
	"slices"
	"unicode/utf8"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
)

// Kind identifies a stage on the wire.
type Kind string

const (
	KindHideUsers      Kind = "hideUsers"
	KindHighlightLong  Kind = "highlightLong"
	KindSortByComments Kind = "sortByComments"
	KindGroupByUser    Kind = "groupByUser"
)

// DefaultMinLength is the body length from which HighlightLong marks a post.
const DefaultMinLength = 200

// Kinds lists every stage kind.
func Kinds() []Kind {
	return []Kind{KindHideUsers, KindHighlightLong, KindSortByComments, KindGroupByUser}
}

// Dependency is data a stage needs beyond the scored page.
type Dependency string

const DependencyCommentCounts Dependency = "commentCounts"

// Stage is one transformation of the render list. The set of stages is closed:
// HideUsers, HighlightLong, SortByComments and GroupByUser.
type Stage interface {
	Kind() Kind

	// Requires lists the data the stage reads that is not loaded by default.
	Requires() []Dependency

	apply(items []RenderItem) []RenderItem
}

// HideUsers drops the posts written by any of HiddenUserIDs. Separators left without
// posts are dropped with them.
type HideUsers struct {
	HiddenUserIDs []int `json:"hiddenUserIds"`
}

// HighlightLong marks posts whose body has at least MinLength characters. A
// non-positive MinLength means DefaultMinLength.
type HighlightLong struct {
	MinLength int `json:"minLength"`
}

// SortByComments orders posts by descending comment count, keeping the relative order
// of equal counts. Posts are sorted within each group when separators are present.
type SortByComments struct{}

// GroupByUser inserts a separator before every run of consecutive posts by the same
// author. It does not reorder posts, so it belongs after any sort or filter stage.
type GroupByUser struct{}

var (
	_ Stage = HideUsers{}
	_ Stage = HighlightLong{}
	_ Stage = SortByComments{}
	_ Stage = GroupByUser{}
)

func (HideUsers) Kind() Kind {
	return KindHideUsers
}

func (HideUsers) Requires() []Dependency {
	return nil
}

func (HighlightLong) Kind() Kind {
	return KindHighlightLong
}

func (HighlightLong) Requires() []Dependency {
	return nil
}

func (SortByComments) Kind() Kind {
	return KindSortByComments
}

func (SortByComments) Requires() []Dependency {
	return []Dependency{DependencyCommentCounts}
}

func (GroupByUser) Kind() Kind {
	return KindGroupByUser
}

func (GroupByUser) Requires() []Dependency {
	return nil
}

func (s HideUsers) apply(items []RenderItem) []RenderItem {
	if len(s.HiddenUserIDs) == 0 {
		return items
	}

	hidden := make(map[int]struct{}, len(s.HiddenUserIDs))
	for _, id := range s.HiddenUserIDs {
		hidden[id] = struct{}{}
	}

	out := make([]RenderItem, 0, len(items))
	for _, item := range items {
		if item.IsPost() {
			if _, ok := hidden[item.Post.UserID]; ok {
				continue
			}
		}
		out = append(out, item)
	}
	return dropEmptySeparators(out)
}

func (s HighlightLong) minLength() int {
	if s.MinLength <= 0 {
		return DefaultMinLength
	}
	return s.MinLength
}

func (s HighlightLong) apply(items []RenderItem) []RenderItem {
	minLength := s.minLength()

	out := slices.Clone(items)
	for i := range out {
		if out[i].IsPost() && utf8.RuneCountInString(out[i].Post.Body) >= minLength {
			out[i].Highlight = true
		}
	}
	return out
}

func (SortByComments) apply(items []RenderItem) []RenderItem {
	out := slices.Clone(items)
	for _, seg := range segments(out) {
		slices.SortStableFunc(out[seg.start:seg.end], func(a, b RenderItem) int {
			return b.CommentCount - a.CommentCount
		})
	}
	return out
}

func (GroupByUser) apply(items []RenderItem) []RenderItem {
	out := make([]RenderItem, 0, len(items)+1)

	first := true
	var current int
	for _, item := range items {
		if !item.IsPost() {
			continue
		}
		if first || item.Post.UserID != current {
			out = append(out, NewSeparator(item.Post.UserID, item.Author))
			current = item.Post.UserID
			first = false
		}
		out = append(out, item)
	}
	return out
}

// segment is a half-open range of consecutive posts between separators.
type segment struct {
	start, end int
}

func segments(items []RenderItem) []segment {
	var out []segment
	start := 0
	for i, item := range items {
		if item.IsPost() {
			continue
		}
		if i > start {
			out = append(out, segment{start: start, end: i})
		}
		start = i + 1
	}
	if len(items) > start {
		out = append(out, segment{start: start, end: len(items)})
	}
	return out
}

// dropEmptySeparators removes separators not followed by at least one post.
func dropEmptySeparators(items []RenderItem) []RenderItem {
	out := items[:0]
	for i, item := range items {
		if !item.IsPost() && (i+1 == len(items) || !items[i+1].IsPost()) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// NewPost wraps a scored item as a post entry.
func NewPost(item content.ScoredItem) RenderItem {
	return RenderItem{Type: ItemPost, ScoredItem: item}
}

// NewSeparator returns a separator for userID. user may be nil when the author is unknown.
func NewSeparator(userID int, user *content.User) RenderItem {
	return RenderItem{Type: ItemSeparator, UserID: userID, User: user}
}
