// Package gateway fetches posts, users and comments from the remote content API and
// memoizes them. Concurrent requests for the same resource share one network call.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/internal/concurrency"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/telemetry"
)

//go:generate mockgen -source gateway.go -destination ../../internal/mocks/mock_gateway.go -package mocks Gateway

const (
	DefaultBaseURL = "https://jsonplaceholder.typicode.com"

	// DefaultTotal is used when the API does not report the size of the post collection.
	DefaultTotal = 100

	defaultMaxConcurrentFetches = 10

	totalCountHeader = "X-Total-Count"
)

var tracer = otel.Tracer("feedexplorer/pkg/gateway")

// Gateway is the read side of the content API. Returned slices are shared with the
// cache and must be treated as read-only.
type Gateway interface {
	// FetchPostsPage returns one page of posts and the size of the whole collection.
	FetchPostsPage(ctx context.Context, page, limit int) (PostsPage, error)

	// FetchUsers returns every user.
	FetchUsers(ctx context.Context) ([]content.User, error)

	// FetchCommentsForPost returns the comments of a single post.
	FetchCommentsForPost(ctx context.Context, postID int) ([]content.Comment, error)

	// FetchCommentsForPosts returns the comments of every requested post, fetching the
	// uncached ones concurrently. It fails as a whole if any fetch fails.
	FetchCommentsForPosts(ctx context.Context, postIDs []int) (*CommentsByPost, error)

	// FetchPostDetail returns a post together with its comments and author.
	FetchPostDetail(ctx context.Context, postID int) (*content.PostDetail, error)
}

// PostsPage is one page of posts plus the total number of posts in the collection.
type PostsPage struct {
	Posts []content.Post `json:"posts"`
	Total int            `json:"total"`
}

// CommentsByPost maps post ids to their comments and remembers the order in which the
// ids were requested.
type CommentsByPost struct {
	ids  []int
	byID map[int][]content.Comment
}

// NewCommentsByPost builds a result over ids in order, dropping repeated ids. An id
// missing from comments maps to an empty list.
func NewCommentsByPost(ids []int, comments map[int][]content.Comment) *CommentsByPost {
	c := &CommentsByPost{
		ids:  make([]int, 0, len(ids)),
		byID: make(map[int][]content.Comment, len(ids)),
	}
	for _, id := range ids {
		c.add(id, comments[id])
	}
	return c
}

func (c *CommentsByPost) add(postID int, comments []content.Comment) {
	if _, ok := c.byID[postID]; ok {
		return
	}
	if comments == nil {
		comments = []content.Comment{}
	}
	c.ids = append(c.ids, postID)
	c.byID[postID] = comments
}

// IDs returns the post ids in request order, without duplicates.
func (c *CommentsByPost) IDs() []int {
	out := make([]int, len(c.ids))
	copy(out, c.ids)
	return out
}

// Get returns the comments of postID.
func (c *CommentsByPost) Get(postID int) ([]content.Comment, bool) {
	comments, ok := c.byID[postID]
	return comments, ok
}

func (c *CommentsByPost) Len() int {
	return len(c.ids)
}

// Counts returns the number of comments per post id.
func (c *CommentsByPost) Counts() map[int]int {
	counts := make(map[int]int, len(c.ids))
	for _, id := range c.ids {
		counts[id] = len(c.byID[id])
	}
	return counts
}

// Client implements Gateway over HTTP.
type Client struct {
	baseURL              string
	httpClient           *http.Client
	cache                *Cache
	group                singleflight.Group
	logger               logger.Logger
	maxConcurrentFetches int
}

var _ Gateway = (*Client)(nil)

type ClientOpt func(*Client)

func WithBaseURL(baseURL string) ClientOpt {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOpt {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithLogger(l logger.Logger) ClientOpt {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMaxConcurrentFetches bounds the fan-out of FetchCommentsForPosts.
func WithMaxConcurrentFetches(n int) ClientOpt {
	return func(c *Client) {
		c.maxConcurrentFetches = n
	}
}

// NewClient returns a Client memoizing into cache. A nil cache gets a fresh unbounded one.
func NewClient(cache *Cache, opts ...ClientOpt) *Client {
	c := &Client{
		baseURL:              DefaultBaseURL,
		cache:                cache,
		logger:               logger.NewNoopLogger(),
		maxConcurrentFetches: defaultMaxConcurrentFetches,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil {
		c.cache = MustNewCache()
	}

	if c.httpClient == nil {
		c.httpClient = NewHTTPClient(DefaultTransportConfig(), c.logger)
	}

	return c
}

// Cache returns the memo tables the client writes into.
func (c *Client) Cache() *Cache {
	return c.cache
}

func (c *Client) FetchPostsPage(ctx context.Context, page, limit int) (PostsPage, error) {
	if page < 1 || limit < 1 {
		return PostsPage{}, fmt.Errorf("%w: page and limit must be at least 1 (page=%d, limit=%d)", ErrInvalidArgument, page, limit)
	}

	ctx, span := tracer.Start(ctx, "gateway.FetchPostsPage", trace.WithAttributes(
		attribute.Int("page", page),
		attribute.Int("limit", limit),
	))
	defer span.End()

	key := PageKey{Page: page, Limit: limit}
	if cached, ok := c.cache.CachedPage(page, limit); ok {
		recordLookup(resourcePosts, true)
		span.SetAttributes(attribute.Bool("cached", true))
		return cached, nil
	}
	recordLookup(resourcePosts, false)

	v, err := c.dedupe(ctx, resourcePosts, fmt.Sprintf("posts/%d/%d", page, limit), func(ctx context.Context) (any, error) {
		if cached, ok := c.cache.CachedPage(page, limit); ok {
			return cached, nil
		}

		query := url.Values{}
		query.Set("_page", strconv.Itoa(page))
		query.Set("_limit", strconv.Itoa(limit))

		var posts []content.Post
		header, err := c.getJSON(ctx, "fetch posts", resourcePosts, "/posts", query, &posts)
		if err != nil {
			return nil, err
		}

		result := PostsPage{Posts: posts, Total: parseTotal(header.Get(totalCountHeader))}
		if result.Posts == nil {
			result.Posts = []content.Post{}
		}
		c.cache.posts.Set(key, result)

		c.logger.DebugWithContext(ctx, "fetched posts page",
			zap.Int("page", page),
			zap.Int("limit", limit),
			zap.Int("count", len(result.Posts)),
			zap.Int("total", result.Total),
		)
		return result, nil
	})
	if err != nil {
		telemetry.TraceError(span, err)
		return PostsPage{}, err
	}

	return v.(PostsPage), nil
}

func (c *Client) FetchUsers(ctx context.Context) ([]content.User, error) {
	ctx, span := tracer.Start(ctx, "gateway.FetchUsers")
	defer span.End()

	if cached, ok := c.cache.CachedUsers(); ok {
		recordLookup(resourceUsers, true)
		span.SetAttributes(attribute.Bool("cached", true))
		return cached, nil
	}
	recordLookup(resourceUsers, false)

	v, err := c.dedupe(ctx, resourceUsers, "users", func(ctx context.Context) (any, error) {
		if cached, ok := c.cache.CachedUsers(); ok {
			return cached, nil
		}

		var users []content.User
		if _, err := c.getJSON(ctx, "fetch users", resourceUsers, "/users", nil, &users); err != nil {
			return nil, err
		}
		if users == nil {
			users = []content.User{}
		}
		c.cache.users.Set(struct{}{}, users)

		c.logger.DebugWithContext(ctx, "fetched users", zap.Int("count", len(users)))
		return users, nil
	})
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}

	return v.([]content.User), nil
}

func (c *Client) FetchCommentsForPost(ctx context.Context, postID int) ([]content.Comment, error) {
	ctx, span := tracer.Start(ctx, "gateway.FetchCommentsForPost", trace.WithAttributes(
		attribute.Int("post_id", postID),
	))
	defer span.End()

	comments, err := c.fetchComments(ctx, postID)
	if err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}
	return comments, nil
}

func (c *Client) fetchComments(ctx context.Context, postID int) ([]content.Comment, error) {
	if cached, ok := c.cache.CachedComments(postID); ok {
		recordLookup(resourceComments, true)
		return cached, nil
	}
	recordLookup(resourceComments, false)

	v, err := c.dedupe(ctx, resourceComments, fmt.Sprintf("comments/%d", postID), func(ctx context.Context) (any, error) {
		if cached, ok := c.cache.CachedComments(postID); ok {
			return cached, nil
		}

		var comments []content.Comment
		path := fmt.Sprintf("/posts/%d/comments", postID)
		if _, err := c.getJSON(ctx, "fetch comments", resourceComments, path, nil, &comments); err != nil {
			return nil, err
		}
		if comments == nil {
			comments = []content.Comment{}
		}
		c.cache.comments.Set(postID, comments)
		return comments, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]content.Comment), nil
}

// FetchCommentsForPosts fetches every uncached post's comments concurrently. The
// result covers the full requested id set in request order. On failure no result
// is returned, but the fetches that did succeed stay cached.
func (c *Client) FetchCommentsForPosts(ctx context.Context, postIDs []int) (*CommentsByPost, error) {
	ctx, span := tracer.Start(ctx, "gateway.FetchCommentsForPosts", trace.WithAttributes(
		attribute.Int("requested", len(postIDs)),
	))
	defer span.End()

	var (
		mu      sync.Mutex
		fetched = make(map[int][]content.Comment)
		missing []int
	)

	for _, id := range postIDs {
		if cached, ok := c.cache.CachedComments(id); ok {
			recordLookup(resourceComments, true)
			fetched[id] = cached
			continue
		}
		if _, queued := fetched[id]; queued {
			continue
		}
		// reserve the slot so duplicated ids are fetched once
		fetched[id] = nil
		missing = append(missing, id)
	}
	span.SetAttributes(attribute.Int("uncached", len(missing)))

	if len(missing) > 0 {
		pool := concurrency.NewPool(ctx, c.maxConcurrentFetches)
		for _, id := range missing {
			pool.Go(func(ctx context.Context) error {
				comments, err := c.fetchComments(ctx, id)
				if err != nil {
					return err
				}
				mu.Lock()
				fetched[id] = comments
				mu.Unlock()
				return nil
			})
		}

		if err := pool.Wait(); err != nil {
			c.logger.WarnWithContext(ctx, "failed to fetch comments for posts",
				zap.Ints("post_ids", missing),
				zap.Error(err),
			)
			telemetry.TraceError(span, err)
			return nil, err
		}
	}

	return NewCommentsByPost(postIDs, fetched), nil
}

// FetchPostDetail fetches the post and its comments concurrently and, once the post
// is known, its author while the comments are still in flight.
func (c *Client) FetchPostDetail(ctx context.Context, postID int) (*content.PostDetail, error) {
	ctx, span := tracer.Start(ctx, "gateway.FetchPostDetail", trace.WithAttributes(
		attribute.Int("post_id", postID),
	))
	defer span.End()

	var (
		post     content.Post
		user     content.User
		comments []content.Comment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comments, err = c.fetchComments(gctx, postID)
		return err
	})
	g.Go(func() error {
		var err error
		post, err = c.fetchPost(gctx, postID)
		if err != nil {
			return err
		}
		user, err = c.fetchUser(gctx, post.UserID)
		return err
	})

	if err := g.Wait(); err != nil {
		telemetry.TraceError(span, err)
		return nil, err
	}

	return &content.PostDetail{
		Post:     post,
		Comments: comments,
		User:     user,
	}, nil
}

func (c *Client) fetchPost(ctx context.Context, postID int) (content.Post, error) {
	v, err := c.dedupe(ctx, resourcePost, fmt.Sprintf("post/%d", postID), func(ctx context.Context) (any, error) {
		var post content.Post
		_, err := c.getJSON(ctx, "fetch post", resourcePost, fmt.Sprintf("/posts/%d", postID), nil, &post)
		return post, err
	})
	if err != nil {
		return content.Post{}, err
	}
	return v.(content.Post), nil
}

func (c *Client) fetchUser(ctx context.Context, userID int) (content.User, error) {
	v, err := c.dedupe(ctx, resourceUser, fmt.Sprintf("user/%d", userID), func(ctx context.Context) (any, error) {
		var user content.User
		_, err := c.getJSON(ctx, "fetch user", resourceUser, fmt.Sprintf("/users/%d", userID), nil, &user)
		return user, err
	})
	if err != nil {
		return content.User{}, err
	}
	return v.(content.User), nil
}

// dedupe runs fn once per key among concurrent callers. fn runs detached from the
// cancellation of whichever caller started it, bounded by the transport timeout, so
// one caller giving up never fails the others. Each caller still returns as soon as
// its own ctx is done.
func (c *Client) dedupe(ctx context.Context, resource, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			deduplicatedFetchCounter.WithLabelValues(resource).Inc()
		}
		return res.Val, res.Err
	}
}

// getJSON issues a GET for path and decodes the JSON body into out. Every failure is
// reported as a *FetchError.
func (c *Client) getJSON(ctx context.Context, op, resource, path string, query url.Values, out any) (http.Header, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	remoteRequestDurationHistogram.WithLabelValues(resource).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		remoteRequestCounter.WithLabelValues(resource, "error").Inc()
		return nil, &FetchError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteRequestCounter.WithLabelValues(resource, "status_"+strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &FetchError{
			Op:         op,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		remoteRequestCounter.WithLabelValues(resource, "decode_error").Inc()
		return nil, &FetchError{Op: op, URL: target, Err: fmt.Errorf("decoding response: %w", err)}
	}

	remoteRequestCounter.WithLabelValues(resource, "ok").Inc()
	return resp.Header, nil
}

// parseTotal reads the collection size header, falling back to DefaultTotal.
func parseTotal(raw string) int {
	total, err := strconv.Atoi(raw)
	if err != nil || total < 0 {
		return DefaultTotal
	}
	return total
}
