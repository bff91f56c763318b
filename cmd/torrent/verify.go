package torrent

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/movsb/metainfo/pkg/metainfo"
	"github.com/movsb/metainfo/pkg/pieces"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// verifyTorrent re-reads the payload under the content path and checks
// every stored hash: v1 pieces across the catenation, v2 pieces per file.
func verifyTorrent(cmd *cobra.Command, args []string) error {
	f, err := metainfo.ParseFile(args[0])
	if err != nil {
		return err
	}
	contentPath := args[1]

	var bar *progressbar.ProgressBar
	if progress, _ := cmd.Flags().GetBool(`progress`); progress {
		bar = progressbar.DefaultBytes(f.TotalLength(), `verifying`)
	}

	if f.Info.HasV1() {
		if err := verifyV1(f, contentPath, bar); err != nil {
			return err
		}
	}
	if f.Info.HasV2() {
		// count v2 progress only when it is the sole pass.
		v2bar := bar
		if f.Info.HasV1() {
			v2bar = nil
		}
		if err := verifyV2(f, contentPath, v2bar); err != nil {
			return err
		}
	}
	fmt.Println(`ok`)
	return nil
}

// payloadPath maps a torrent file path onto the content directory.
// When the content path is itself a regular file (single-file
// torrents), it is used as-is.
func payloadPath(contentPath string, f *metainfo.File, paths []string) string {
	if st, err := os.Stat(contentPath); err == nil && st.Mode().IsRegular() {
		return contentPath
	}
	return filepath.Join(contentPath, filepath.Join(paths...))
}

func verifyV1(f *metainfo.File, contentPath string, bar *progressbar.ProgressBar) error {
	ranges, err := pieces.V1Ranges(f)
	if err != nil {
		return err
	}
	for _, pr := range ranges {
		var chunks [][]byte
		for _, r := range pr.Ranges {
			if r.Pad {
				continue
			}
			chunk, err := readRange(payloadPath(contentPath, f, r.Paths), r.Offset, r.Length)
			if err != nil {
				return fmt.Errorf(`piece %d: %w`, pr.Index, err)
			}
			chunks = append(chunks, chunk)
			if bar != nil {
				bar.Add64(r.Length)
			}
		}
		ok, err := pr.ValidateData(chunks...)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf(`piece %d/%d: hash mismatch`, pr.Index, len(ranges)-1)
		}
	}
	return nil
}

func verifyV2(f *metainfo.File, contentPath string, bar *progressbar.ProgressBar) error {
	for _, it := range f.Info.FileTree.Flatten() {
		if it.Length == 0 {
			continue
		}
		name := strings.Join(it.Path, `/`)
		numPieces := (it.Length + f.Info.PieceLength - 1) / f.Info.PieceLength
		for k := int64(0); k < numPieces; k++ {
			pr, err := pieces.V2Range(f, name, int(k))
			if err != nil {
				return err
			}
			chunk, err := readRange(payloadPath(contentPath, f, it.Path), pr.Offset, pr.Length)
			if err != nil {
				return fmt.Errorf(`%s piece %d: %w`, name, k, err)
			}
			ok, err := pr.ValidateData(chunk)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf(`%s piece %d/%d: hash mismatch`, name, k, numPieces-1)
			}
			if bar != nil {
				bar.Add64(pr.Length)
			}
		}
	}
	return nil
}

func readRange(path string, offset, length int64) ([]byte, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	buf := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(fp, offset, length), buf); err != nil {
		return nil, err
	}
	return buf, nil
}
