package pieces

import (
	"bytes"
	"crypto/sha1"
	"fmt"

	"github.com/movsb/metainfo/pkg/metainfo"
)

// FileRange is a byte range within one file of the torrent.
type FileRange struct {
	// Index into the torrent's file list including pads.
	Index  int
	Paths  []string
	Offset int64
	Length int64
	Pad    bool
}

// V1PieceRange maps piece index to the file ranges whose bytes feed it,
// together with the expected SHA-1 digest.
type V1PieceRange struct {
	Index       int
	PieceLength int64
	Ranges      []FileRange
	Hash        [sha1.Size]byte

	name   string
	single bool
}

// V1Range resolves piece index against the padded v1 catenation.
//
// The position within each file comes from cumulative offsets, never
// from a modulo: consecutive files of exactly one piece length would
// alias under a modulo.
func V1Range(f *metainfo.File, index int) (*V1PieceRange, error) {
	info := f.Info
	if !info.HasV1() {
		return nil, fmt.Errorf(`pieces: torrent has no v1 piece hashes`)
	}
	if index < 0 || index >= info.Pieces.Len() {
		return nil, fmt.Errorf(`pieces: piece index %d out of range [0, %d)`, index, info.Pieces.Len())
	}

	pr := &V1PieceRange{
		Index:       index,
		PieceLength: info.PieceLength,
		name:        info.BestName(),
		single:      info.HasLength,
	}
	copy(pr.Hash[:], info.Pieces.Index(index))

	start := int64(index) * info.PieceLength
	end := start + info.PieceLength
	if padded := info.PaddedLength(); end > padded {
		end = padded
	}

	var offset int64
	for n, it := range info.AllItems() {
		fileStart, fileEnd := offset, offset+it.Length
		offset = fileEnd
		if fileEnd <= start {
			continue
		}
		if fileStart >= end {
			break
		}
		lo, hi := fileStart, fileEnd
		if lo < start {
			lo = start
		}
		if hi > end {
			hi = end
		}
		pr.Ranges = append(pr.Ranges, FileRange{
			Index:  n,
			Paths:  it.BestPaths(),
			Offset: lo - fileStart,
			Length: hi - lo,
			Pad:    it.IsPad(),
		})
	}
	return pr, nil
}

// V1Ranges resolves every piece, for callers that walk the whole torrent.
func V1Ranges(f *metainfo.File) ([]*V1PieceRange, error) {
	out := make([]*V1PieceRange, 0, f.Info.Pieces.Len())
	for i := 0; i < f.Info.Pieces.Len(); i++ {
		pr, err := V1Range(f, i)
		if err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, nil
}

// ValidateData checks caller-supplied bytes against the stored piece
// hash. Chunks cover the real-file ranges in order, in any chunking;
// pad ranges are always taken as zeros, whatever the caller holds.
// A mismatch is a result, not an error; errors mean the input does not
// even have the right shape.
func (pr *V1PieceRange) ValidateData(chunks ...[]byte) (bool, error) {
	var supplied int64
	for _, c := range chunks {
		supplied += int64(len(c))
	}
	var want int64
	for _, r := range pr.Ranges {
		if !r.Pad {
			want += r.Length
		}
	}
	if supplied != want {
		return false, fmt.Errorf(`pieces: %d bytes supplied for a piece with %d real bytes`, supplied, want)
	}

	h := sha1.New()
	next := 0
	var cur []byte
	for _, r := range pr.Ranges {
		if r.Pad {
			h.Write(make([]byte, r.Length))
			continue
		}
		for remain := r.Length; remain > 0; {
			for len(cur) == 0 {
				cur = chunks[next]
				next++
			}
			n := int64(len(cur))
			if n > remain {
				n = remain
			}
			h.Write(cur[:n])
			cur = cur[n:]
			remain -= n
		}
	}
	return bytes.Equal(h.Sum(nil), pr.Hash[:]), nil
}

// WebseedURL builds the HTTP URL for the first real file of the piece.
func (pr *V1PieceRange) WebseedURL(base string) string {
	for _, r := range pr.Ranges {
		if !r.Pad {
			return webseedURL(base, pr.name, r.Paths, pr.single)
		}
	}
	return webseedURL(base, pr.name, nil, pr.single)
}
