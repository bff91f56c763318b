package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	cmdFile "github.com/movsb/metainfo/cmd/file"
	"github.com/movsb/metainfo/cmd/tools"
	"github.com/movsb/metainfo/cmd/torrent"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   filepath.Base(os.Args[0]),
		Short: `A BitTorrent metainfo tool.`,
	}

	torrent.AddCommands(rootCmd)
	cmdFile.AddCommands(rootCmd)
	tools.AddCommands(rootCmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
