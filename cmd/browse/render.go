package browse

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/exec_common"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/feed"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/transform"
)

func render(w io.Writer, format exec_common.OutputFormat, v feed.View) error {
	if format == exec_common.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return renderText(w, v)
}

// renderText prints the view as a table. Separators start a new block named after
// the author of the run that follows.
func renderText(w io.Writer, v feed.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "page %d of %d  [%s]\n", v.Page, v.TotalPages, pageLinks(v.Page, v.Pages))
	if v.Query != "" {
		fmt.Fprintf(tw, "search %q (%s)\n", v.Query, v.Mode)
	}
	fmt.Fprintln(tw)

	if v.Empty() {
		fmt.Fprintln(tw, "no posts")
		return tw.Flush()
	}

	for _, item := range v.Items {
		if item.Type == transform.ItemSeparator {
			name := fmt.Sprintf("user %d", item.UserID)
			if item.User != nil {
				name = item.User.Name
			}
			fmt.Fprintf(tw, "-- %s --\n", name)
			continue
		}

		marker := ""
		if item.Highlight {
			marker = "*"
		}
		author := item.AuthorName()
		if author == "" {
			author = fmt.Sprintf("user %d", item.Post.UserID)
		}
		fmt.Fprintf(tw, "%s#%d\t%s\t%s\t%d comments\t%.2f\n",
			marker, item.Post.ID, item.Post.Title, author, item.CommentCount, item.Score)
	}

	return tw.Flush()
}

func pageLinks(current int, pages []int) string {
	links := make([]string, 0, len(pages))
	for _, p := range pages {
		if p == current {
			links = append(links, fmt.Sprintf("(%d)", p))
			continue
		}
		links = append(links, fmt.Sprint(p))
	}
	return strings.Join(links, " ")
}
