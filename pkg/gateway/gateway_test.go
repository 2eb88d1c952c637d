package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/cache"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
)

// fakeAPI is a minimal stand-in for the content API that counts requests per path.
type fakeAPI struct {
	mu       sync.Mutex
	hits     map[string]int
	posts    []content.Post
	users    []content.User
	comments map[int][]content.Comment

	// failPaths answer with the given status code.
	failPaths map[string]int

	// omitTotal drops the X-Total-Count header.
	omitTotal bool
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{
		hits:      map[string]int{},
		comments:  map[int][]content.Comment{},
		failPaths: map[string]int{},
	}
	for i := 1; i <= 25; i++ {
		api.posts = append(api.posts, content.Post{
			ID:     i,
			UserID: (i-1)/10 + 1,
			Title:  fmt.Sprintf("title %d", i),
			Body:   fmt.Sprintf("body %d", i),
		})
		for j := 0; j < i%4; j++ {
			api.comments[i] = append(api.comments[i], content.Comment{ID: i*10 + j, PostID: i, Name: "c", Body: "b"})
		}
	}
	for i := 1; i <= 3; i++ {
		api.users = append(api.users, content.User{ID: i, Name: fmt.Sprintf("user %d", i)})
	}
	return api
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	status, fail := f.failPaths[r.URL.Path]
	f.mu.Unlock()

	if fail {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var id, sub int
	switch {
	case r.URL.Path == "/posts":
		var page, limit int
		_, _ = fmt.Sscanf(r.URL.Query().Get("_page"), "%d", &page)
		_, _ = fmt.Sscanf(r.URL.Query().Get("_limit"), "%d", &limit)
		start := (page - 1) * limit
		end := start + limit
		if start > len(f.posts) {
			start = len(f.posts)
		}
		if end > len(f.posts) {
			end = len(f.posts)
		}
		if !f.omitTotal {
			w.Header().Set("X-Total-Count", fmt.Sprint(len(f.posts)))
		}
		_ = json.NewEncoder(w).Encode(f.posts[start:end])
	case r.URL.Path == "/users":
		_ = json.NewEncoder(w).Encode(f.users)
	case strings.HasSuffix(r.URL.Path, "/comments"):
		_, _ = fmt.Sscanf(r.URL.Path, "/posts/%d/comments", &id)
		comments := f.comments[id]
		if comments == nil {
			comments = []content.Comment{}
		}
		_ = json.NewEncoder(w).Encode(comments)
	case strings.HasPrefix(r.URL.Path, "/posts/"):
		_, _ = fmt.Sscanf(r.URL.Path, "/posts/%d", &id)
		if id < 1 || id > len(f.posts) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("{}"))
			return
		}
		_ = json.NewEncoder(w).Encode(f.posts[id-1])
	case strings.HasPrefix(r.URL.Path, "/users/"):
		_, _ = fmt.Sscanf(r.URL.Path, "/users/%d", &sub)
		if sub < 1 || sub > len(f.users) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("{}"))
			return
		}
		_ = json.NewEncoder(w).Encode(f.users[sub-1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setupClient(t *testing.T, api http.Handler, opts ...ClientOpt) *Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	c := MustNewCache()
	t.Cleanup(c.Close)

	opts = append([]ClientOpt{WithBaseURL(server.URL), WithHTTPClient(server.Client())}, opts...)
	return NewClient(c, opts...)
}

func TestFetchPostsPage(t *testing.T) {
	t.Run("second_call_is_served_from_cache", func(t *testing.T) {
		api := newFakeAPI()
		client := setupClient(t, api)

		first, err := client.FetchPostsPage(context.Background(), 1, 10)
		require.NoError(t, err)
		require.Len(t, first.Posts, 10)
		require.Equal(t, 25, first.Total)

		second, err := client.FetchPostsPage(context.Background(), 1, 10)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Equal(t, 1, api.count("/posts"))
	})

	t.Run("different_parameters_are_different_keys", func(t *testing.T) {
		api := newFakeAPI()
		client := setupClient(t, api)

		_, err := client.FetchPostsPage(context.Background(), 1, 10)
		require.NoError(t, err)
		last, err := client.FetchPostsPage(context.Background(), 3, 10)
		require.NoError(t, err)
		_, err = client.FetchPostsPage(context.Background(), 1, 5)
		require.NoError(t, err)

		require.Len(t, last.Posts, 5)
		require.Equal(t, 21, last.Posts[0].ID)
		require.Equal(t, 3, api.count("/posts"))
	})

	t.Run("total_defaults_when_header_missing", func(t *testing.T) {
		api := newFakeAPI()
		api.omitTotal = true
		client := setupClient(t, api)

		page, err := client.FetchPostsPage(context.Background(), 2, 10)
		require.NoError(t, err)
		require.Equal(t, DefaultTotal, page.Total)
	})

	t.Run("rejects_invalid_arguments", func(t *testing.T) {
		api := newFakeAPI()
		client := setupClient(t, api)

		_, err := client.FetchPostsPage(context.Background(), 0, 10)
		require.ErrorIs(t, err, ErrInvalidArgument)
		_, err = client.FetchPostsPage(context.Background(), 1, 0)
		require.ErrorIs(t, err, ErrInvalidArgument)
		require.Equal(t, 0, api.count("/posts"))
	})

	t.Run("non_success_status_is_a_fetch_error", func(t *testing.T) {
		api := newFakeAPI()
		api.failPaths["/posts"] = http.StatusInternalServerError
		client := setupClient(t, api)

		_, err := client.FetchPostsPage(context.Background(), 1, 10)
		require.Error(t, err)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, http.StatusInternalServerError, fetchErr.StatusCode)
		require.Equal(t, "fetch posts", fetchErr.Op)

		// failures are not cached
		delete(api.failPaths, "/posts")
		_, err = client.FetchPostsPage(context.Background(), 1, 10)
		require.NoError(t, err)
		require.Equal(t, 2, api.count("/posts"))
	})

	t.Run("network_failure_is_a_fetch_error", func(t *testing.T) {
		server := httptest.NewServer(newFakeAPI())
		server.Close()

		client := NewClient(MustNewCache(), WithBaseURL(server.URL), WithHTTPClient(&http.Client{}))
		_, err := client.FetchPostsPage(context.Background(), 1, 10)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Zero(t, fetchErr.StatusCode)
		require.NotNil(t, errors.Unwrap(err))
	})

	t.Run("malformed_body_is_a_fetch_error", func(t *testing.T) {
		client := setupClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("[{not json"))
		}))

		_, err := client.FetchPostsPage(context.Background(), 1, 10)
		require.ErrorAs(t, err, new(*FetchError))
		require.ErrorContains(t, err, "decoding response")
	})
}

func TestConcurrentRequestsAreCoalesced(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	api := newFakeAPI()

	client := setupClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		api.ServeHTTP(w, r)
	}))

	const callers = 8
	var wg sync.WaitGroup
	results := make([]PostsPage, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = client.FetchPostsPage(context.Background(), 2, 10)
		}(i)
	}

	require.Eventually(t, func() bool { return requests.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, results[0], results[i])
	}
	require.Equal(t, int32(1), requests.Load())
}

func TestCancelledCallerDoesNotFailCoalescedCallers(t *testing.T) {
	var requests atomic.Int32
	release := make(chan struct{})
	api := newFakeAPI()

	client := setupClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		<-release
		api.ServeHTTP(w, r)
	}))

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := client.FetchPostsPage(ctxA, 1, 10)
		errA <- err
	}()
	require.Eventually(t, func() bool { return requests.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		page PostsPage
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		page, err := client.FetchPostsPage(context.Background(), 1, 10)
		resB <- result{page, err}
	}()

	// give the second caller time to join the in-flight request
	time.Sleep(20 * time.Millisecond)
	cancelA()

	select {
	case err := <-errA:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)

	select {
	case res := <-resB:
		require.NoError(t, res.err)
		require.Len(t, res.page.Posts, 10)
	case <-time.After(5 * time.Second):
		t.Fatal("coalesced caller did not return")
	}
	require.Equal(t, int32(1), requests.Load())

	// the detached fetch still fills the cache
	_, ok := client.Cache().CachedPage(1, 10)
	require.True(t, ok)
}

func TestFetchUsers(t *testing.T) {
	api := newFakeAPI()
	client := setupClient(t, api)

	users, err := client.FetchUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 3)

	_, err = client.FetchUsers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, api.count("/users"))

	cached, ok := client.Cache().CachedUsers()
	require.True(t, ok)
	require.Equal(t, users, cached)
}

func TestFetchCommentsForPost(t *testing.T) {
	api := newFakeAPI()
	client := setupClient(t, api)

	comments, err := client.FetchCommentsForPost(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, comments, 3)

	// a post without comments is cached as an empty list
	empty, err := client.FetchCommentsForPost(context.Background(), 4)
	require.NoError(t, err)
	require.Empty(t, empty)
	_, err = client.FetchCommentsForPost(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 1, api.count("/posts/4/comments"))
}

func TestFetchCommentsForPosts(t *testing.T) {
	t.Run("fetches_only_uncached_ids_and_keeps_request_order", func(t *testing.T) {
		api := newFakeAPI()
		client := setupClient(t, api)

		_, err := client.FetchCommentsForPost(context.Background(), 2)
		require.NoError(t, err)

		result, err := client.FetchCommentsForPosts(context.Background(), []int{7, 2, 3, 7, 1})
		require.NoError(t, err)
		require.Equal(t, []int{7, 2, 3, 1}, result.IDs())
		require.Equal(t, 4, result.Len())
		require.Equal(t, map[int]int{7: 3, 2: 2, 3: 3, 1: 1}, result.Counts())

		require.Equal(t, 1, api.count("/posts/2/comments"))
		require.Equal(t, 1, api.count("/posts/7/comments"))

		comments, ok := result.Get(3)
		require.True(t, ok)
		require.Len(t, comments, 3)
		_, ok = result.Get(99)
		require.False(t, ok)
	})

	t.Run("all_cached_issues_no_request", func(t *testing.T) {
		api := newFakeAPI()
		client := setupClient(t, api)

		_, err := client.FetchCommentsForPosts(context.Background(), []int{1, 2})
		require.NoError(t, err)
		_, err = client.FetchCommentsForPosts(context.Background(), []int{2, 1})
		require.NoError(t, err)

		require.Equal(t, 1, api.count("/posts/1/comments"))
		require.Equal(t, 1, api.count("/posts/2/comments"))
	})

	t.Run("empty_request", func(t *testing.T) {
		client := setupClient(t, newFakeAPI())

		result, err := client.FetchCommentsForPosts(context.Background(), nil)
		require.NoError(t, err)
		require.Zero(t, result.Len())
	})

	t.Run("one_failure_fails_the_call_but_keeps_committed_entries", func(t *testing.T) {
		api := newFakeAPI()
		api.failPaths["/posts/3/comments"] = http.StatusServiceUnavailable
		// one fetch at a time, in request order
		client := setupClient(t, api, WithMaxConcurrentFetches(1))

		result, err := client.FetchCommentsForPosts(context.Background(), []int{1, 2, 3})
		require.Nil(t, result)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)

		_, ok := client.Cache().CachedComments(1)
		require.True(t, ok)
		_, ok = client.Cache().CachedComments(2)
		require.True(t, ok)
		_, ok = client.Cache().CachedComments(3)
		require.False(t, ok)

		// a retry only needs the failed id
		delete(api.failPaths, "/posts/3/comments")
		result, err = client.FetchCommentsForPosts(context.Background(), []int{1, 2, 3})
		require.NoError(t, err)
		require.Equal(t, 3, result.Len())
		require.Equal(t, 1, api.count("/posts/1/comments"))
		require.Equal(t, 2, api.count("/posts/3/comments"))
	})
}

func TestFetchPostDetail(t *testing.T) {
	t.Run("combines_post_comments_and_author", func(t *testing.T) {
		api := newFakeAPI()
		client := setupClient(t, api)

		detail, err := client.FetchPostDetail(context.Background(), 11)
		require.NoError(t, err)
		require.Equal(t, 11, detail.Post.ID)
		require.Equal(t, 2, detail.User.ID)
		require.Len(t, detail.Comments, 3)

		// the comments are memoized like any other comment lookup
		_, ok := client.Cache().CachedComments(11)
		require.True(t, ok)
	})

	t.Run("author_failure_fails_the_call", func(t *testing.T) {
		api := newFakeAPI()
		api.failPaths["/users/1"] = http.StatusInternalServerError
		client := setupClient(t, api)

		detail, err := client.FetchPostDetail(context.Background(), 1)
		require.Nil(t, detail)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, "fetch user", fetchErr.Op)
	})

	t.Run("missing_post", func(t *testing.T) {
		client := setupClient(t, newFakeAPI())

		_, err := client.FetchPostDetail(context.Background(), 404)

		var fetchErr *FetchError
		require.ErrorAs(t, err, &fetchErr)
		require.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	})
}

func TestCachesAreIndependent(t *testing.T) {
	api := newFakeAPI()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	a := NewClient(MustNewCache(), WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	b := NewClient(MustNewCache(), WithBaseURL(server.URL), WithHTTPClient(server.Client()))

	_, err := a.FetchUsers(context.Background())
	require.NoError(t, err)
	_, err = b.FetchUsers(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, api.count("/users"))
}

func TestBoundedCacheBackend(t *testing.T) {
	api := newFakeAPI()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	c, err := NewCache(cache.WithMaxEntries(64))
	require.NoError(t, err)
	t.Cleanup(c.Close)

	client := NewClient(c, WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	page, err := client.FetchPostsPage(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 10)

	cached, ok := c.CachedPage(1, 10)
	require.True(t, ok)
	require.Equal(t, page, cached)
}

func TestParseTotal(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want int
	}{
		{raw: "", want: DefaultTotal},
		{raw: "abc", want: DefaultTotal},
		{raw: "-3", want: DefaultTotal},
		{raw: "0", want: 0},
		{raw: "250", want: 250},
	} {
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.want, parseTotal(tc.raw))
		})
	}
}

func TestFetchErrorMessage(t *testing.T) {
	withStatus := &FetchError{Op: "fetch users", URL: "http://api/users", StatusCode: 500}
	require.Equal(t, "failed to fetch users: http://api/users returned status 500", withStatus.Error())

	cause := errors.New("connection refused")
	withoutStatus := &FetchError{Op: "fetch users", URL: "http://api/users", Err: cause}
	require.Equal(t, "failed to fetch users: connection refused", withoutStatus.Error())
	require.ErrorIs(t, withoutStatus, cause)
}
