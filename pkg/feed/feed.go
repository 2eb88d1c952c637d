// Package feed coordinates one browsing session: it loads pages, users and comment
// counts through the gateway and turns them into the render-ready feed.
package feed

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/gateway"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/search"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/telemetry"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/transform"
)

const DefaultPageSize = 10

var tracer = otel.Tracer("feedexplorer/pkg/feed")

// View is everything the presentation layer needs to draw the feed.
type View struct {
	SessionID  string                 `json:"sessionId"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
	Pages      []int                  `json:"pages"`
	Items      []transform.RenderItem `json:"items"`
	Loading    bool                   `json:"loading"`
	Err        string                 `json:"error,omitempty"`
	Query      string                 `json:"query"`
	Mode       search.Mode            `json:"mode"`
}

// Empty reports whether a settled, successful load produced nothing to show.
func (v View) Empty() bool {
	return !v.Loading && v.Err == "" && len(v.Items) == 0
}

// Session holds the state of one browsing session. It is safe for concurrent use;
// network calls never run while the state lock is held, and results of loads that
// were superseded by a newer one are discarded.
type Session struct {
	id       string
	gateway  gateway.Gateway
	logger   logger.Logger
	pageSize int

	mu       sync.Mutex
	page     int
	total    int
	posts    []content.Post
	users    []content.User
	authors  map[int]*content.User
	counts   map[int]int
	query    string
	mode     search.Mode
	pipeline transform.Pipeline
	compiled *transform.Compiled
	loading  bool
	err      error

	// pageGen and countGen are bumped by every page and comment-count load.
	pageGen  uint64
	countGen uint64
}

type SessionOpt func(*Session)

func WithLogger(l logger.Logger) SessionOpt {
	return func(s *Session) {
		s.logger = l
	}
}

// WithPageSize sets the number of posts per page. Values below 1 are ignored.
func WithPageSize(n int) SessionOpt {
	return func(s *Session) {
		if n >= 1 {
			s.pageSize = n
		}
	}
}

// WithPage sets the page Start loads. Values below 1 are ignored.
func WithPage(page int) SessionOpt {
	return func(s *Session) {
		if page >= 1 {
			s.page = page
		}
	}
}

// WithQuery sets the initial search query.
func WithQuery(query string) SessionOpt {
	return func(s *Session) {
		s.query = query
	}
}

// WithSearchMode sets the initial search mode.
func WithSearchMode(mode search.Mode) SessionOpt {
	return func(s *Session) {
		s.mode = mode
	}
}

// WithPipeline sets the initial pipeline. It is validated by NewSession.
func WithPipeline(p transform.Pipeline) SessionOpt {
	return func(s *Session) {
		s.pipeline = p
	}
}

// NewSession returns a session on page 1 with an empty query and the default
// pipeline. Nothing is fetched until Start.
func NewSession(gw gateway.Gateway, opts ...SessionOpt) (*Session, error) {
	s := &Session{
		id:       ulid.Make().String(),
		gateway:  gw,
		logger:   logger.NewNoopLogger(),
		pageSize: DefaultPageSize,
		page:     1,
		total:    gateway.DefaultTotal,
		authors:  map[int]*content.User{},
		counts:   map[int]int{},
		mode:     search.DefaultMode,
		pipeline: transform.DefaultPipeline(),
	}

	for _, opt := range opts {
		opt(s)
	}

	mode, err := search.ParseMode(string(s.mode))
	if err != nil {
		return nil, err
	}
	s.mode = mode
	if err := s.pipeline.Validate(); err != nil {
		return nil, err
	}

	s.logger = s.logger.With(zap.String("session_id", s.id))
	s.compiled = transform.Compile(s.pipeline)
	s.logOrderWarnings(s.pipeline)

	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Start loads the user list and the current page concurrently. The total is only
// known once a page loaded, so an initial page past the last one is clamped then and
// the last page is loaded instead.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()

	var wg conc.WaitGroup
	wg.Go(func() {
		s.loadUsers(ctx)
	})
	wg.Go(func() {
		s.loadPage(ctx, page)
	})
	wg.Wait()

	s.mu.Lock()
	last := totalPages(s.total, s.pageSize)
	outOfRange := s.err == nil && s.page > last
	s.mu.Unlock()

	if outOfRange {
		s.logger.DebugWithContext(ctx, "initial page out of range, loading the last page",
			zap.Int("page", page),
			zap.Int("total_pages", last),
		)
		s.loadPage(ctx, last)
	}
}

// SetPage moves to page, clamped into [1, TotalPages], and loads it.
func (s *Session) SetPage(ctx context.Context, page int) {
	s.mu.Lock()
	page = clamp(page, 1, totalPages(s.total, s.pageSize))
	s.mu.Unlock()

	s.loadPage(ctx, page)
}

// SetSearch replaces the query and mode. The page is not refetched: search only
// applies to the posts already loaded.
func (s *Session) SetSearch(query string, mode search.Mode) error {
	mode, err := search.ParseMode(string(mode))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = query
	s.mode = mode
	return nil
}

// SetPipeline replaces the whole pipeline. When an enabled stage needs comment counts
// they are loaded for the current page; otherwise the known counts are kept.
func (s *Session) SetPipeline(ctx context.Context, p transform.Pipeline) error {
	if err := p.Validate(); err != nil {
		return err
	}

	p = slices.Clone(p)
	compiled := transform.Compile(p)

	s.mu.Lock()
	s.pipeline = p
	s.compiled = compiled
	s.mu.Unlock()

	s.logOrderWarnings(p)
	s.logger.DebugWithContext(ctx, "pipeline replaced", zap.Any("stages", compiled.Stages()))

	if p.Requires(transform.DependencyCommentCounts) {
		s.loadCounts(ctx)
	}
	return nil
}

// Refresh reloads the current page and, if needed, its comment counts.
func (s *Session) Refresh(ctx context.Context) {
	s.mu.Lock()
	page := s.page
	s.mu.Unlock()

	s.loadPage(ctx, page)
}

// Users returns the loaded users, for building the hide-users control.
func (s *Session) Users() []content.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users)
}

// Pipeline returns a copy of the current pipeline.
func (s *Session) Pipeline() transform.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pipeline)
}

// Err returns the error of the last settled page load, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// PostDetail returns a post with its comments and author.
func (s *Session) PostDetail(ctx context.Context, postID int) (*content.PostDetail, error) {
	return s.gateway.FetchPostDetail(ctx, postID)
}

// View computes the feed from the current state: score and filter the loaded page,
// attach authors and comment counts, then run the pipeline. It does no I/O and
// returns the same result for the same state.
func (s *Session) View() View {
	s.mu.Lock()
	v := View{
		SessionID:  s.id,
		Page:       s.page,
		PageSize:   s.pageSize,
		TotalPages: totalPages(s.total, s.pageSize),
		Loading:    s.loading,
		Query:      s.query,
		Mode:       s.mode,
	}
	if s.err != nil {
		v.Err = s.err.Error()
	}
	posts := s.posts
	authors := s.authors
	counts := s.counts
	compiled := s.compiled
	s.mu.Unlock()

	// posts, authors and counts are replaced wholesale, never mutated, so they can be
	// read outside the lock.
	ranked := search.Rank(posts, authors, counts, v.Query, v.Mode)
	v.Items = compiled.Apply(ranked)
	v.Pages = PageWindow(v.Page, v.TotalPages)

	return v
}

func (s *Session) loadUsers(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "feed.loadUsers")
	defer span.End()

	users, err := s.gateway.FetchUsers(ctx)
	if err != nil {
		telemetry.TraceError(span, err)
		s.logger.WarnWithContext(ctx, "failed to load users, authors stay unresolved", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.authors = content.UsersByID(users)
}

func (s *Session) loadPage(ctx context.Context, page int) {
	ctx, span := tracer.Start(ctx, "feed.loadPage", trace.WithAttributes(attribute.Int("page", page)))
	defer span.End()

	s.mu.Lock()
	s.pageGen++
	gen := s.pageGen
	s.page = page
	s.loading = true
	s.err = nil
	pageSize := s.pageSize
	s.mu.Unlock()

	result, err := s.gateway.FetchPostsPage(ctx, page, pageSize)

	s.mu.Lock()
	if gen != s.pageGen {
		s.mu.Unlock()
		s.logger.DebugWithContext(ctx, "discarding stale page load", zap.Int("page", page))
		return
	}

	s.loading = false
	if err != nil {
		s.posts = nil
		s.err = err
		s.mu.Unlock()

		telemetry.TraceError(span, err)
		s.logger.WarnWithContext(ctx, "failed to load page", zap.Int("page", page), zap.Error(err))
		return
	}

	s.posts = result.Posts
	s.total = result.Total
	needCounts := s.pipeline.Requires(transform.DependencyCommentCounts)
	s.mu.Unlock()

	if needCounts {
		s.loadCounts(ctx)
	}
}

func (s *Session) loadCounts(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "feed.loadCounts")
	defer span.End()

	s.mu.Lock()
	s.countGen++
	gen := s.countGen
	pageGen := s.pageGen
	ids := make([]int, 0, len(s.posts))
	for _, p := range s.posts {
		ids = append(ids, p.ID)
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	result, err := s.gateway.FetchCommentsForPosts(ctx, ids)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.countGen || pageGen != s.pageGen {
		s.logger.DebugWithContext(ctx, "discarding stale comment counts", zap.Ints("post_ids", ids))
		return
	}

	if err != nil {
		telemetry.TraceError(span, err)
		s.logger.WarnWithContext(ctx, "failed to load comment counts, keeping previous counts", zap.Error(err))
		return
	}

	s.counts = result.Counts()
}

func (s *Session) logOrderWarnings(p transform.Pipeline) {
	for _, w := range p.OrderWarnings() {
		s.logger.Info("pipeline order", zap.String("warning", w))
	}
}

// totalPages is ceil(total/pageSize), at least 1.
func totalPages(total, pageSize int) int {
	if pageSize < 1 {
		return 1
	}
	return max(1, (total+pageSize-1)/pageSize)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
