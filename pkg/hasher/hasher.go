package hasher

import (
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/movsb/metainfo/pkg/common"
	"golang.org/x/sync/errgroup"
)

// Source is one entry of the hashing stream, in torrent order.
// Pad entries have no on-disk path; their bytes are zeros.
type Source struct {
	Path        string
	TorrentPath []string
	Length      int64
	Pad         bool
}

// Options ...
type Options struct {
	PieceLength int64

	// Workers <= 1 hashes serially; v1 and hybrid hashing then run in
	// the calling goroutine.
	Workers int

	// Progress, when set, is called with the number of payload bytes
	// consumed after each read. Must be safe for concurrent use when
	// Workers > 1.
	Progress func(n int64)
}

func (o *Options) progress(n int64) {
	if o.Progress != nil && n > 0 {
		o.Progress(n)
	}
}

// V1Result ...
type V1Result struct {
	Pieces common.PieceHashes
}

// FileHash is the v2 hashing result for one file.
type FileHash struct {
	TorrentPath []string
	Length      int64
	Root        common.PieceRoot
	HasRoot     bool

	// Layer is the piece-layers entry; nil when the file fits in one piece.
	Layer []byte
}

// V2Result ...
type V2Result struct {
	Files []FileHash
}

// job is a stateless hash computation writing into a preassigned slot,
// so results land in order no matter which worker runs them.
type job struct {
	data    []byte
	sha1Dst []byte    // v1 piece slot (20 bytes)
	leafDst *[32]byte // v2 leaf slot
}

func (j *job) run() {
	if j.sha1Dst != nil {
		sum := sha1.Sum(j.data)
		copy(j.sha1Dst, sum[:])
	}
	if j.leafDst != nil {
		*j.leafDst = sha256.Sum256(j.data)
	}
}

// runPool drives dispatch with a bounded worker pool. The dispatcher
// reads bytes and enqueues jobs; workers only hash. With one worker
// everything runs inline in the calling goroutine.
func runPool(ctx context.Context, workers int, dispatch func(emit func(job) error) error) error {
	if workers <= 1 {
		return dispatch(func(j job) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			j.run()
			return nil
		})
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan job, workers*2)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				j.run()
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		return dispatch(func(j job) error {
			select {
			case jobs <- j:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})
	return g.Wait()
}

// readFull reads exactly len(p) bytes; a short read (the file shrank
// since it was listed) returns the io.ReadFull error wrapped with the path.
func readFull(fp *os.File, p []byte, path string) error {
	if _, err := io.ReadFull(fp, p); err != nil {
		return fmt.Errorf(`hasher: read %s: %w`, path, err)
	}
	return nil
}
