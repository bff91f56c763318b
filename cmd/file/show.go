package file

import (
	"os"
	"strings"

	"github.com/movsb/metainfo/pkg/metainfo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// AddCommands ...
func AddCommands(root *cobra.Command) {
	fileCmd := &cobra.Command{
		Use:   `file`,
		Short: `Torrent file related commands`,
	}
	root.AddCommand(fileCmd)

	infoCmd := &cobra.Command{
		Use:   `info <torrent-file>`,
		Short: `Show info about a torrent file`,
		Args:  cobra.ExactArgs(1),
		RunE:  fileInfo,
	}
	fileCmd.AddCommand(infoCmd)

	listFilesCmd := &cobra.Command{
		Use:   `list <torrent-file>`,
		Short: `List files in torrent file.`,
		Args:  cobra.ExactArgs(1),
		RunE:  fileList,
	}
	fileCmd.AddCommand(listFilesCmd)
}

func fileInfo(cmd *cobra.Command, args []string) error {
	f, err := metainfo.ParseFile(args[0])
	if err != nil {
		return err
	}
	info := map[string]interface{}{
		`Name`:        f.Info.DisplayName(),
		`Flavor`:      f.Flavor().String(),
		`Announce`:    f.Announce,
		`Length`:      f.TotalLength(),
		`FileCount`:   f.FileCount(),
		`PieceLength`: f.Info.PieceLength,
	}
	if f.Info.HasV1() {
		info[`PieceCount`] = f.Info.Pieces.Len()
	}
	return yaml.NewEncoder(os.Stdout).Encode(info)
}

func fileList(cmd *cobra.Command, args []string) error {
	f, err := metainfo.ParseFile(args[0])
	if err != nil {
		return err
	}
	type listed struct {
		Path   string
		Length int64
	}
	files := make([]listed, 0, f.FileCount())
	for _, it := range f.RealFiles() {
		files = append(files, listed{
			Path:   strings.Join(it.BestPaths(), `/`),
			Length: it.Length,
		})
	}
	return yaml.NewEncoder(os.Stdout).Encode(files)
}
