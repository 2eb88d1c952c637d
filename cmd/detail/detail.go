// Package detail contains the command that prints a post with its comments and author.
package detail

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/natefinch/wrap"
	"github.com/spf13/cobra"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/exec_common"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/content"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
)

const (
	outputFlag = "output"

	// textWidth is the column at which post and comment bodies are wrapped.
	textWidth = 72
)

func NewDetailCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "detail <post-id>",
		Short:   "Print a post with its comments and author",
		Long:    "Print a post with its comments and author, fetched concurrently from the content API.",
		Example: "  feedexplorer detail 7 --output json",
		RunE:    runDetail,
		Args:    cobra.ExactArgs(1),
	}

	flags := cmd.Flags()
	flags.StringP(outputFlag, "o", exec_common.Text.String(), "the output format, one of ['text', 'json']")
	exec_common.AddAPIFlags(flags)

	cmd.PreRun = func(command *cobra.Command, _ []string) {
		exec_common.BindAPIFlags(command.Flags())
	}

	return cmd
}

func runDetail(cmd *cobra.Command, args []string) error {
	postID, err := strconv.Atoi(args[0])
	if err != nil || postID < 1 {
		return fmt.Errorf("post id must be a positive integer, got %q", args[0])
	}

	output, _ := cmd.Flags().GetString(outputFlag)
	format, err := exec_common.NewOutputFormat(output)
	if err != nil {
		return err
	}

	cfg, err := exec_common.ReadConfig()
	if err != nil {
		return err
	}

	l, err := logger.NewLogger(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	gw, err := exec_common.NewGateway(cfg, l)
	if err != nil {
		return err
	}
	defer gw.Cache().Close()

	detail, err := gw.FetchPostDetail(cmd.Context(), postID)
	if err != nil {
		return err
	}

	if format == exec_common.JSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	}
	return renderText(cmd.OutOrStdout(), detail)
}

func renderText(w io.Writer, d *content.PostDetail) error {
	if _, err := fmt.Fprintf(w, "#%d %s\nby %s <%s>\n\n%s\n\n%d comments\n",
		d.Post.ID, d.Post.Title, d.User.Name, d.User.Email, wrapText(d.Post.Body, textWidth), len(d.Comments)); err != nil {
		return err
	}

	for _, c := range d.Comments {
		if _, err := fmt.Fprintf(w, "\n- %s (%s)\n  %s\n", c.Name, c.Email, indent(wrapText(c.Body, textWidth-2))); err != nil {
			return err
		}
	}
	return nil
}

func wrapText(text string, width int) string {
	return strings.TrimRight(wrap.String(text, width), "\n")
}

func indent(text string) string {
	return strings.ReplaceAll(text, "\n", "\n  ")
}
