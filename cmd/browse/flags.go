package browse

import (
	"github.com/spf13/cobra"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/exec_common"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/util"
)

// bindRunFlags binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindRunFlags(command *cobra.Command, _ []string) {
	flags := command.Flags()

	util.MustBindPFlag("feed.pageSize", flags.Lookup(pageSizeFlag))
	util.MustBindEnv("feed.pageSize", "FEEDEXPLORER_FEED_PAGE_SIZE", "FEEDEXPLORER_FEED_PAGESIZE")

	util.MustBindPFlag("feed.defaultMode", flags.Lookup(modeFlag))
	util.MustBindEnv("feed.defaultMode", "FEEDEXPLORER_FEED_DEFAULT_MODE", "FEEDEXPLORER_FEED_DEFAULTMODE")

	exec_common.BindAPIFlags(flags)
}
