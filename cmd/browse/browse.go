// Package browse contains the command that prints one computed page of the feed.
package browse

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/exec_common"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/config"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/feed"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/logger"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/search"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/pkg/transform"
)

const (
	pageFlag         = "page"
	pageSizeFlag     = "page-size"
	queryFlag        = "query"
	modeFlag         = "mode"
	pipelineFileFlag = "pipeline-file"
	enableFlag       = "enable"
	hideUsersFlag    = "hide-users"
	minLengthFlag    = "min-length"
	outputFlag       = "output"
)

func NewBrowseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Print one page of the feed",
		Long: `Print one page of the feed after search and the transform pipeline were applied.

The pipeline is read from --pipeline-file (YAML or JSON) or starts from the default pipeline.
--enable, --hide-users and --min-length adjust it on top of that.`,
		Example: `  feedexplorer browse --page 2 --query ervin
  feedexplorer browse --enable sortByComments,groupByUser --output json
  feedexplorer browse --pipeline-file pipeline.yaml --mode fuzzy --query lrm`,
		RunE: runBrowse,
		Args: cobra.NoArgs,
	}

	defaultConfig := config.DefaultConfig()
	flags := cmd.Flags()

	flags.Int(pageFlag, 1, "the 1-based page to show")
	flags.Int(pageSizeFlag, defaultConfig.Feed.PageSize, "the number of posts per page")
	flags.StringP(queryFlag, "q", "", "the search query applied to the page")
	flags.String(modeFlag, defaultConfig.Feed.DefaultMode, fmt.Sprintf("the search mode, one of %v", search.Modes()))
	flags.String(pipelineFileFlag, "", "a YAML or JSON file holding the transform pipeline")
	flags.StringSlice(enableFlag, nil, fmt.Sprintf("transformers to enable, any of %v", transform.Kinds()))
	flags.IntSlice(hideUsersFlag, nil, "ids of users whose posts are hidden (enables hideUsers)")
	flags.Int(minLengthFlag, transform.DefaultMinLength, "the body length from which highlightLong marks a post")
	flags.StringP(outputFlag, "o", exec_common.Text.String(), "the output format, one of ['text', 'json']")
	exec_common.AddAPIFlags(flags)

	cmd.PreRun = bindRunFlags

	return cmd
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	output, _ := flags.GetString(outputFlag)
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

	pipeline, err := pipelineFromFlags(cmd)
	if err != nil {
		return err
	}

	mode, err := search.ParseMode(cfg.Feed.DefaultMode)
	if err != nil {
		return err
	}

	page, _ := flags.GetInt(pageFlag)
	query, _ := flags.GetString(queryFlag)

	gw, err := exec_common.NewGateway(cfg, l)
	if err != nil {
		return err
	}
	defer gw.Cache().Close()

	session, err := feed.NewSession(gw,
		feed.WithLogger(l),
		feed.WithPage(page),
		feed.WithPageSize(cfg.Feed.PageSize),
		feed.WithQuery(query),
		feed.WithSearchMode(mode),
		feed.WithPipeline(pipeline),
	)
	if err != nil {
		return err
	}

	session.Start(cmd.Context())
	if err := session.Err(); err != nil {
		return err
	}

	return render(cmd.OutOrStdout(), format, session.View())
}

// pipelineFromFlags reads --pipeline-file, or starts from the default pipeline, and
// applies --enable, --hide-users and --min-length on top.
func pipelineFromFlags(cmd *cobra.Command) (transform.Pipeline, error) {
	flags := cmd.Flags()

	pipeline := transform.DefaultPipeline()
	if path, _ := flags.GetString(pipelineFileFlag); path != "" {
		var err error
		pipeline, err = transform.ReadPipelineFile(path)
		if err != nil {
			return nil, err
		}
	}

	enable, _ := flags.GetStringSlice(enableFlag)
	for _, id := range enable {
		kind := transform.Kind(id)
		if pipeline.Index(kind) < 0 {
			return nil, fmt.Errorf("%w: %q is not part of the pipeline", transform.ErrUnknownStage, id)
		}
		pipeline = pipeline.SetEnabled(kind, true)
	}

	if flags.Changed(hideUsersFlag) {
		i := pipeline.Index(transform.KindHideUsers)
		if i < 0 {
			return nil, fmt.Errorf("%w: %q is not part of the pipeline", transform.ErrUnknownStage, transform.KindHideUsers)
		}

		hidden, _ := flags.GetIntSlice(hideUsersFlag)
		for _, userID := range hidden {
			// ToggleHiddenUser would unhide users the pipeline file already hides
			current, _ := pipeline[i].Stage.(transform.HideUsers)
			if !slices.Contains(current.HiddenUserIDs, userID) {
				pipeline = pipeline.ToggleHiddenUser(userID)
			}
		}
		pipeline = pipeline.SetEnabled(transform.KindHideUsers, true)
	}

	if flags.Changed(minLengthFlag) {
		minLength, _ := flags.GetInt(minLengthFlag)
		pipeline = pipeline.SetMinLength(minLength)
	}

	return pipeline, nil
}
