package hasher

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
)

// v1 read granularity. Pieces smaller than this are read whole.
const readSize = 1 << 20

// HashV1 computes the concatenated SHA-1 piece hashes of the sources
// in order. Pad entries contribute zeros without touching the disk.
// The concatenation is never materialized: a rolling piece buffer is
// filled file by file and hashed at piece boundaries.
func HashV1(ctx context.Context, sources []Source, o Options) (*V1Result, error) {
	pieces, err := hashV1Stream(ctx, sources, o, nil)
	if err != nil {
		return nil, err
	}
	return &V1Result{Pieces: pieces}, nil
}

// onData, when non-nil, observes every real-file byte run as it is
// read; the hybrid hasher uses it to feed the v2 leaves off the same
// reads.
func hashV1Stream(ctx context.Context, sources []Source, o Options, onData func(src int, off int64, data []byte, emit func(job) error) error) ([]byte, error) {
	var total int64
	for _, s := range sources {
		total += s.Length
	}
	numPieces := (total + o.PieceLength - 1) / o.PieceLength
	if numPieces == 0 {
		numPieces = 1
	}
	pieces := make([]byte, sha1.Size*numPieces)

	err := runPool(ctx, o.Workers, func(emit func(job) error) error {
		var (
			index int64
			buf   = make([]byte, 0, o.PieceLength)
		)
		flush := func(force bool) error {
			for int64(len(buf)) == o.PieceLength || (force && len(buf) > 0) {
				if err := emit(job{data: buf, sha1Dst: pieces[index*sha1.Size:][:sha1.Size]}); err != nil {
					return err
				}
				index++
				buf = make([]byte, 0, o.PieceLength)
			}
			return nil
		}

		for n, src := range sources {
			if src.Pad || src.Length == 0 {
				// zeros: extend the piece buffer without reading.
				remain := src.Length
				for remain > 0 {
					room := o.PieceLength - int64(len(buf))
					if room > remain {
						room = remain
					}
					buf = append(buf, make([]byte, room)...)
					remain -= room
					if err := flush(false); err != nil {
						return err
					}
				}
				continue
			}

			fp, err := os.Open(src.Path)
			if err != nil {
				return fmt.Errorf(`hasher: %w`, err)
			}
			var off int64
			for remain := src.Length; remain > 0; {
				if err := ctx.Err(); err != nil {
					fp.Close()
					return err
				}
				room := o.PieceLength - int64(len(buf))
				if room > readSize {
					room = readSize
				}
				if room > remain {
					room = remain
				}
				at := len(buf)
				buf = buf[:at+int(room)]
				if err := readFull(fp, buf[at:], src.Path); err != nil {
					fp.Close()
					return err
				}
				if onData != nil {
					if err := onData(n, off, buf[at:], emit); err != nil {
						fp.Close()
						return err
					}
				}
				o.progress(room)
				off += room
				remain -= room
				if err := flush(false); err != nil {
					fp.Close()
					return err
				}
			}
			fp.Close()
		}

		// the final short piece; an empty payload still hashes once.
		if len(buf) > 0 {
			return flush(true)
		}
		if index == 0 {
			return emit(job{data: nil, sha1Dst: pieces[:sha1.Size]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pieces, nil
}
