// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with FEEDEXPLORER, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("FEEDEXPLORER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/feedexplorer", "$HOME/.feedexplorer", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	return &cobra.Command{
		Use:   "feedexplorer",
		Short: "Browse a paginated feed of posts with search and a configurable transform pipeline",
		Long: `Browse a paginated feed of posts with search and a configurable transform pipeline.

The feed explorer reads posts, users and comments from a JSONPlaceholder-style content API,
caches them, scores them against a search query and runs them through an ordered pipeline of
transformers (hide users, highlight long posts, sort by comments, group by user).
Use 'browse' and 'detail' from a terminal, or 'serve' to expose the same views over HTTP.`,
		SilenceUsage: true,
	}
}
