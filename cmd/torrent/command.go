package torrent

import (
	"github.com/spf13/cobra"
)

// AddCommands ...
func AddCommands(root *cobra.Command) {
	createCmd := &cobra.Command{
		Use:   `create <file-or-directory>`,
		Short: `Create a torrent file`,
		Args:  cobra.ExactArgs(1),
		RunE:  createTorrent,
	}
	createCmd.Flags().String(`flavor`, `v1`, `torrent flavor: v1, v2, or hybrid`)
	createCmd.Flags().Int64(`piece-length`, 0, `piece length in bytes (0 picks automatically)`)
	createCmd.Flags().StringArray(`tracker`, nil, `tracker URL, one tier each; repeatable`)
	createCmd.Flags().StringArray(`webseed`, nil, `webseed URL; repeatable`)
	createCmd.Flags().String(`comment`, ``, `torrent comment`)
	createCmd.Flags().String(`source`, ``, `info source tag`)
	createCmd.Flags().Bool(`private`, false, `mark torrent private`)
	createCmd.Flags().Bool(`no-date`, false, `omit creation date`)
	createCmd.Flags().Bool(`pad-files`, false, `align v1 files to piece boundaries with pad files`)
	createCmd.Flags().IntP(`workers`, `j`, 1, `hashing workers`)
	createCmd.Flags().Bool(`progress`, false, `show hashing progress`)
	createCmd.Flags().StringP(`output`, `o`, ``, `output path (default <name>.torrent)`)
	root.AddCommand(createCmd)

	dumpCmd := &cobra.Command{
		Use:   `dump <torrent-file>`,
		Short: `Dump a torrent file as YAML`,
		Args:  cobra.ExactArgs(1),
		RunE:  dumpFile,
	}
	dumpCmd.Flags().Bool(`piece-hashes`, false, `include the v1 piece hashes`)
	root.AddCommand(dumpCmd)

	infoHashCmd := &cobra.Command{
		Use:   `infohash <torrent-file>...`,
		Short: `Print the infohashes of torrent files`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  infoHashes,
	}
	root.AddCommand(infoHashCmd)

	verifyCmd := &cobra.Command{
		Use:   `verify <torrent-file> <content-path>`,
		Short: `Verify payload files against a torrent`,
		Args:  cobra.ExactArgs(2),
		RunE:  verifyTorrent,
	}
	verifyCmd.Flags().Bool(`progress`, false, `show verification progress`)
	root.AddCommand(verifyCmd)
}
