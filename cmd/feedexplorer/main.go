package main

import (
	"os"

	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/browse"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/detail"
	"github.com/Jyoti-coder1/Postsphere-feed-explorer/cmd/serve"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	rootCmd.AddCommand(browse.NewBrowseCommand())
	rootCmd.AddCommand(detail.NewDetailCommand())
	rootCmd.AddCommand(serve.NewServeCommand())
	rootCmd.AddCommand(cmd.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
