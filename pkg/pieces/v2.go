package pieces

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/movsb/metainfo/pkg/common"
	"github.com/movsb/metainfo/pkg/hasher"
	"github.com/movsb/metainfo/pkg/metainfo"
)

// V2PieceRange addresses one piece of one file: v2 hashes never cross
// file boundaries.
type V2PieceRange struct {
	Paths       []string
	Index       int
	Offset      int64 // within the file
	Length      int64
	PieceLength int64
	FileLength  int64

	// Expected is the stored digest for this piece: the file's pieces
	// root when the whole file is one piece, or a 32-byte slice of its
	// piece layers entry.
	Expected [sha256.Size]byte

	wholeFile bool
	name      string
}

// V2Range resolves a piece of the file at path (components joined
// with '/') against the file tree and piece layers.
func V2Range(f *metainfo.File, path string, index int) (*V2PieceRange, error) {
	info := f.Info
	if !info.HasV2() {
		return nil, fmt.Errorf(`pieces: torrent has no file tree`)
	}
	parts := strings.Split(path, `/`)
	leaf := info.FileTree.Lookup(parts)
	if leaf == nil {
		return nil, fmt.Errorf(`pieces: no file %q in file tree`, path)
	}
	if leaf.Length == 0 {
		return nil, fmt.Errorf(`pieces: file %q is empty, nothing to validate`, path)
	}

	pr := &V2PieceRange{
		Paths:       parts,
		Index:       index,
		PieceLength: info.PieceLength,
		FileLength:  leaf.Length,
		name:        info.BestName(),
	}

	if leaf.Length <= info.PieceLength {
		if index != 0 {
			return nil, fmt.Errorf(`pieces: file %q is a single piece, index %d out of range`, path, index)
		}
		pr.Length = leaf.Length
		pr.Expected = leaf.Root
		pr.wholeFile = true
		return pr, nil
	}

	numPieces := (leaf.Length + info.PieceLength - 1) / info.PieceLength
	if index < 0 || int64(index) >= numPieces {
		return nil, fmt.Errorf(`pieces: piece index %d out of range [0, %d)`, index, numPieces)
	}
	layer, ok := f.LayersFor(leaf.Root)
	if !ok {
		return nil, fmt.Errorf(`pieces: no piece layers entry for %q`, path)
	}
	pr.Offset = int64(index) * info.PieceLength
	pr.Length = info.PieceLength
	if end := pr.Offset + pr.Length; end > leaf.Length {
		pr.Length = leaf.Length - pr.Offset
	}
	copy(pr.Expected[:], layer[32*index:])
	return pr, nil
}

// ValidateData hashes the supplied bytes into 16 KiB leaves, pads the
// sub-tree with zero hashes to the piece's leaf capacity, and compares
// the resulting root with the stored digest.
func (pr *V2PieceRange) ValidateData(chunks ...[]byte) (bool, error) {
	var supplied int64
	for _, c := range chunks {
		supplied += int64(len(c))
	}
	if supplied != pr.Length {
		return false, fmt.Errorf(`pieces: %d bytes supplied for a %d-byte piece`, supplied, pr.Length)
	}

	leaves := hashChunkLeaves(chunks)
	if pr.wholeFile {
		root, _ := hasher.BuildTree(leaves, pr.FileLength, pr.PieceLength)
		return root == common.PieceRoot(pr.Expected), nil
	}

	padded := make([][32]byte, pr.PieceLength/common.BlockSize)
	copy(padded, leaves)
	return hasher.MerkleRoot(padded) == pr.Expected, nil
}

// WebseedURL ...
func (pr *V2PieceRange) WebseedURL(base string) string {
	return webseedURL(base, pr.name, pr.Paths, false)
}

// hashChunkLeaves re-blocks arbitrary chunking into 16 KiB leaves.
func hashChunkLeaves(chunks [][]byte) [][32]byte {
	var leaves [][32]byte
	h := sha256.New()
	var fill int64
	flush := func() {
		var leaf [32]byte
		h.Sum(leaf[:0])
		leaves = append(leaves, leaf)
		h.Reset()
		fill = 0
	}
	for _, c := range chunks {
		for len(c) > 0 {
			room := int64(common.BlockSize) - fill
			n := int64(len(c))
			if n > room {
				n = room
			}
			h.Write(c[:n])
			fill += n
			c = c[n:]
			if fill == common.BlockSize {
				flush()
			}
		}
	}
	if fill > 0 {
		flush()
	}
	return leaves
}
