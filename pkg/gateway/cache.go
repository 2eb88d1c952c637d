package gateway

import (
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/cache"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
)

// PageKey identifies one cached page of posts.
type PageKey struct {
	Page  int
	Limit int
}

// Cache holds the gateway's memo tables. A Cache is constructed once per session or
// process and injected into a Client; separate Caches never share entries.
type Cache struct {
	posts    cache.Cache[PageKey, PostsPage]
	users    cache.Cache[struct{}, []content.User]
	comments cache.Cache[int, []content.Comment]
}

// NewCache builds the three memo tables with the same options.
func NewCache(opts ...cache.Opt) (*Cache, error) {
	posts, err := cache.New[PageKey, PostsPage](opts...)
	if err != nil {
		return nil, err
	}

	users, err := cache.New[struct{}, []content.User](opts...)
	if err != nil {
		posts.Close()
		return nil, err
	}

	comments, err := cache.New[int, []content.Comment](opts...)
	if err != nil {
		posts.Close()
		users.Close()
		return nil, err
	}

	return &Cache{
		posts:    posts,
		users:    users,
		comments: comments,
	}, nil
}

// MustNewCache is like NewCache but panics on error.
func MustNewCache(opts ...cache.Opt) *Cache {
	c, err := NewCache(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// CachedComments returns the comments cached for postID.
func (c *Cache) CachedComments(postID int) ([]content.Comment, bool) {
	return c.comments.Get(postID)
}

// CachedPage returns the cached page for (page, limit).
func (c *Cache) CachedPage(page, limit int) (PostsPage, bool) {
	return c.posts.Get(PageKey{Page: page, Limit: limit})
}

// CachedUsers returns the cached user list.
func (c *Cache) CachedUsers() ([]content.User, bool) {
	return c.users.Get(struct{}{})
}

func (c *Cache) Close() {
	c.posts.Close()
	c.users.Close()
	c.comments.Close()
}
