// Package search scores posts against a query and ranks the page by relevance.
package search

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
)

// Mode selects which fields of a post a query is matched against.
type Mode string

const (
	// ModeTitle matches the query as a substring of the title.
	ModeTitle Mode = "title"

	// ModeFull matches the query as a substring of the title, body and author name.
	ModeFull Mode = "full"

	// ModeFuzzy scores the query as a subsequence of the title, body or author name.
	ModeFuzzy Mode = "fuzzy"

	DefaultMode = ModeFull
)

var ErrUnknownMode = errors.New("unknown search mode")

// Modes lists every supported mode.
func Modes() []Mode {
	return []Mode{ModeTitle, ModeFull, ModeFuzzy}
}

// ParseMode returns the Mode named by s. The empty string selects DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultMode, nil
	case ModeTitle:
		return ModeTitle, nil
	case ModeFull:
		return ModeFull, nil
	case ModeFuzzy:
		return ModeFuzzy, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	return string(m)
}

// folder lower-cases text for comparison. Casers keep state, so a folder must not be
// shared between goroutines.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Lower(language.Und)}
}

func (f *folder) fold(s string) string {
	return f.caser.String(norm.NFC.String(s))
}

// Score returns the relevance of post in [0, 1]. author may be nil. An empty query
// scores every post 1.
func Score(post content.Post, author *content.User, query string, mode Mode) float64 {
	f := newFolder()
	q := f.fold(strings.TrimSpace(query))
	if q == "" {
		return 1
	}
	return f.score(post, author, q, mode)
}

func (f *folder) score(post content.Post, author *content.User, q string, mode Mode) float64 {
	authorName := ""
	if author != nil {
		authorName = author.Name
	}

	switch mode {
	case ModeTitle:
		if strings.Contains(f.fold(post.Title), q) {
			return 1
		}
	case ModeFull:
		if strings.Contains(f.fold(post.Title+" "+post.Body+" "+authorName), q) {
			return 1
		}
	case ModeFuzzy:
		return max(
			fuzzyScore(f.fold(post.Title), q),
			fuzzyScore(f.fold(post.Body), q),
			fuzzyScore(f.fold(authorName), q),
		)
	}
	return 0
}

// FuzzyScore returns len(query)/len(text), counted in runes after lower-casing, when
// query is a subsequence of text, and 0 otherwise. An empty query scores 1.
func FuzzyScore(text, query string) float64 {
	f := newFolder()
	q := f.fold(query)
	if q == "" {
		return 1
	}
	return fuzzyScore(f.fold(text), q)
}

// fuzzyScore walks text once, advancing through q on every matching rune.
func fuzzyScore(text, q string) float64 {
	remaining := q
	for _, r := range text {
		if remaining == "" {
			break
		}
		next, size := utf8.DecodeRuneInString(remaining)
		if r == next {
			remaining = remaining[size:]
		}
	}
	if remaining != "" {
		return 0
	}
	return float64(utf8.RuneCountInString(q)) / float64(utf8.RuneCountInString(text))
}

// Rank scores every post of a page. With an empty query every post is kept with
// score 1 in page order. Otherwise zero-score posts are dropped and the rest are
// sorted by descending score, ties keeping page order. authors resolves a post's
// userId; commentCounts supplies the count for each post id and defaults to 0.
func Rank(posts []content.Post, authors map[int]*content.User, commentCounts map[int]int, query string, mode Mode) []content.ScoredItem {
	f := newFolder()
	q := f.fold(strings.TrimSpace(query))

	items := make([]content.ScoredItem, 0, len(posts))
	for _, post := range posts {
		author := authors[post.UserID]

		score := 1.0
		if q != "" {
			score = f.score(post, author, q, mode)
			if score == 0 {
				continue
			}
		}

		items = append(items, content.ScoredItem{
			Post:         post,
			Author:       author,
			CommentCount: commentCounts[post.ID],
			Score:        score,
		})
	}

	if q != "" {
		slices.SortStableFunc(items, func(a, b content.ScoredItem) int {
			switch {
			case a.Score > b.Score:
				return -1
			case a.Score < b.Score:
				return 1
			}
			return 0
		})
	}

	return items
}
