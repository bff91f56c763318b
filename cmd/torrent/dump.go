package torrent

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/movsb/metainfo/pkg/metainfo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func dumpFile(cmd *cobra.Command, args []string) error {
	f, err := metainfo.ParseFile(args[0])
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		`flavor`:       f.Flavor().String(),
		`name`:         f.Info.DisplayName(),
		`piece length`: f.Info.PieceLength,
		`total length`: f.TotalLength(),
		`file count`:   f.FileCount(),
	}
	switch f.Flavor() {
	case metainfo.FlavorV1:
		out[`infohash`] = f.InfoHash().String()
	case metainfo.FlavorV2:
		out[`infohash`] = f.InfoHashV2().String()
	default:
		out[`infohash`] = f.InfoHash().String()
		out[`infohash v2`] = f.InfoHashV2().String()
	}
	if f.Announce != `` {
		out[`announce`] = f.Announce
	}
	if len(f.AnnounceList) > 0 {
		out[`announce-list`] = f.AnnounceList
	}
	if f.Comment != `` {
		out[`comment`] = f.Comment
	}
	if f.CreatedBy != `` {
		out[`created by`] = f.CreatedBy
	}
	if f.CreationDate != 0 {
		out[`creation date`] = f.CreationDate
	}
	if len(f.URLList) > 0 {
		out[`url-list`] = f.URLList
	}

	var files []map[string]interface{}
	for _, it := range f.RealFiles() {
		files = append(files, map[string]interface{}{
			`path`:   strings.Join(it.BestPaths(), `/`),
			`length`: it.Length,
		})
	}
	out[`files`] = files

	if f.Info.HasV1() {
		out[`piece count`] = f.Info.Pieces.Len()
		if withHashes, _ := cmd.Flags().GetBool(`piece-hashes`); withHashes {
			hashes := make([]string, 0, f.Info.Pieces.Len())
			for i := 0; i < f.Info.Pieces.Len(); i++ {
				hashes = append(hashes, hex.EncodeToString(f.Info.Pieces.Index(i)))
			}
			out[`pieces`] = hashes
		}
	}
	if f.Info.HasV2() {
		roots := map[string]string{}
		for _, it := range f.Info.FileTree.Flatten() {
			if it.HasRoot {
				roots[strings.Join(it.Path, `/`)] = it.Root.String()
			}
		}
		out[`pieces roots`] = roots
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	return enc.Encode(out)
}
