// Package content holds the data model of the feed explorer: the records served by
// the remote content API and the scored items derived from them.
package content

// Post is a single post. It is immutable once fetched and identified by ID.
type Post struct {
	ID     int    `json:"id"`
	UserID int    `json:"userId"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type Geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     Geo    `json:"geo"`
}

type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

// User is the author of posts. It is immutable once fetched and identified by ID.
type User struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone,omitempty"`
	Website  string   `json:"website,omitempty"`
	Address  *Address `json:"address,omitempty"`
	Company  *Company `json:"company,omitempty"`
}

// Comment belongs to exactly one post.
type Comment struct {
	ID     int    `json:"id"`
	PostID int    `json:"postId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

// PostDetail is a post together with its comments and its author.
type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
	User     User      `json:"user"`
}

// ScoredItem is a post decorated for rendering. It has no identity beyond Post.ID and
// is recomputed whenever its inputs change.
type ScoredItem struct {
	Post         Post    `json:"post"`
	Author       *User   `json:"author,omitempty"`
	CommentCount int     `json:"commentCount"`
	Score        float64 `json:"score"`
	Highlight    bool    `json:"highlight"`
}

// AuthorName returns the author's name, or the empty string when the author is unknown.
func (s ScoredItem) AuthorName() string {
	if s.Author == nil {
		return ""
	}
	return s.Author.Name
}

// UsersByID indexes users by their id. Later duplicates win.
func UsersByID(users []User) map[int]*User {
	m := make(map[int]*User, len(users))
	for i := range users {
		m[users[i].ID] = &users[i]
	}
	return m
}
