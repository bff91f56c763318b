package hasher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/movsb/metainfo/pkg/common"
	"golang.org/x/sync/errgroup"
)

// HashV2 builds the per-file merkle trees. Sources must not contain
// pad entries; v2 never pads with files. Files are independent, so
// with more than one worker they are hashed in parallel; each file's
// tree is deterministic regardless of scheduling.
func HashV2(ctx context.Context, sources []Source, o Options) (*V2Result, error) {
	for _, src := range sources {
		if src.Pad {
			return nil, fmt.Errorf(`hasher: pad entry %q in v2 sources`, src.Path)
		}
	}

	result := &V2Result{Files: make([]FileHash, len(sources))}
	g, ctx := errgroup.WithContext(ctx)
	workers := o.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for n, src := range sources {
		n, src := n, src
		g.Go(func() error {
			fh, err := hashFileTree(ctx, src, o)
			if err != nil {
				return err
			}
			result.Files[n] = *fh
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// hashFileTree hashes one file's blocks into leaves and folds them.
func hashFileTree(ctx context.Context, src Source, o Options) (*FileHash, error) {
	fh := &FileHash{TorrentPath: src.TorrentPath, Length: src.Length}
	if src.Length == 0 {
		return fh, nil
	}

	leaves, err := hashLeaves(ctx, src, o.progress)
	if err != nil {
		return nil, err
	}
	fh.Root, fh.Layer = BuildTree(leaves, src.Length, o.PieceLength)
	fh.HasRoot = true
	return fh, nil
}

// hashLeaves reads the file in 16 KiB blocks and SHA-256 hashes each.
func hashLeaves(ctx context.Context, src Source, progress func(int64)) ([][32]byte, error) {
	fp, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf(`hasher: %w`, err)
	}
	defer fp.Close()

	numBlocks := (src.Length + common.BlockSize - 1) / common.BlockSize
	leaves := make([][32]byte, 0, numBlocks)
	buf := make([]byte, common.BlockSize)
	for remain := src.Length; remain > 0; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := int64(common.BlockSize)
		if n > remain {
			n = remain
		}
		if err := readFull(fp, buf[:n], src.Path); err != nil {
			return nil, err
		}
		leaves = append(leaves, sha256.Sum256(buf[:n]))
		if progress != nil {
			progress(n)
		}
		remain -= n
	}
	return leaves, nil
}
