package hasher

import (
	"context"
	"fmt"

	"github.com/movsb/metainfo/pkg/common"
)

// HashHybrid runs the v1 and v2 passes over one shared read of the
// payload: each real-file block feeds a v2 leaf job and the rolling v1
// piece buffer; pad bytes feed only the v1 buffer. Sources are the v1
// stream including pads; the v2 results cover the real files only.
func HashHybrid(ctx context.Context, sources []Source, o Options) (*V1Result, *V2Result, error) {
	// leaf slots per source, preallocated so workers can write directly.
	leaves := make([][][32]byte, len(sources))
	real := 0
	for n, src := range sources {
		if src.Pad {
			continue
		}
		numBlocks := (src.Length + common.BlockSize - 1) / common.BlockSize
		leaves[n] = make([][32]byte, numBlocks)
		real++
	}

	pieces, err := hashV1Stream(ctx, sources, o, func(src int, off int64, data []byte, emit func(job) error) error {
		// runs stay block-aligned only when every file starts on a
		// piece boundary, which is what the pad entries are for.
		if off%common.BlockSize != 0 {
			return fmt.Errorf(`hasher: file %q not piece-aligned, missing pad entries`, sources[src].Path)
		}
		// carve the run into leaf blocks.
		for len(data) > 0 {
			n := common.BlockSize
			if n > len(data) {
				n = len(data)
			}
			block := make([]byte, n)
			copy(block, data[:n])
			if err := emit(job{data: block, leafDst: &leaves[src][off/common.BlockSize]}); err != nil {
				return err
			}
			data = data[n:]
			off += int64(n)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	v2 := &V2Result{Files: make([]FileHash, 0, real)}
	for n, src := range sources {
		if src.Pad {
			continue
		}
		fh := FileHash{TorrentPath: src.TorrentPath, Length: src.Length}
		if src.Length > 0 {
			fh.Root, fh.Layer = BuildTree(leaves[n], src.Length, o.PieceLength)
			fh.HasRoot = true
		}
		v2.Files = append(v2.Files, fh)
	}
	return &V1Result{Pieces: pieces}, v2, nil
}
