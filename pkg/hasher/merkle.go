package hasher

import (
	"crypto/sha256"

	"github.com/movsb/metainfo/pkg/common"
)

// MerkleRoot combines pairwise until one hash remains.
// len(hashes) must be a power of two. The input is left intact.
func MerkleRoot(hashes [][32]byte) [32]byte {
	scratch := make([][32]byte, len(hashes))
	copy(scratch, hashes)
	return merkleRoot(scratch)
}

// merkleRoot reduces in place.
func merkleRoot(hashes [][32]byte) [32]byte {
	if len(hashes)&(len(hashes)-1) != 0 {
		panic(`merkle: leaf count is not a power of two`)
	}
	level := hashes
	buf := make([]byte, 64)
	for len(level) > 1 {
		next := level[:len(level)/2]
		for i := range next {
			copy(buf[:32], level[2*i][:])
			copy(buf[32:], level[2*i+1][:])
			next[i] = sha256.Sum256(buf)
		}
		level = next
	}
	return level[0]
}

// padPieceHash is the hash used to pad the piece level of an
// unbalanced tree: the root of a piece's worth of zero leaf hashes.
// It is not zero itself because zeros are only the bottom layer.
func padPieceHash(blocksPerPiece int64) [32]byte {
	return merkleRoot(make([][32]byte, blocksPerPiece))
}

// BuildTree folds a file's leaf hashes into its pieces root and, for
// files longer than one piece, the piece-layers entry.
//
// Leaves are padded with zero hashes in two steps: up to a full piece
// (or, for sub-piece files, up to a power of two of at least a piece's
// worth of blocks), then the piece level is padded with padPieceHash
// up to a power of two.
func BuildTree(leaves [][32]byte, length, pieceLength int64) (root common.PieceRoot, layer []byte) {
	blocksPerPiece := pieceLength / common.BlockSize

	if length <= pieceLength {
		want := common.NextPowerOfTwo(int64(len(leaves)))
		if want < blocksPerPiece {
			want = blocksPerPiece
		}
		padded := make([][32]byte, want)
		copy(padded, leaves)
		return common.PieceRoot(merkleRoot(padded)), nil
	}

	numPieces := (length + pieceLength - 1) / pieceLength
	padded := make([][32]byte, numPieces*blocksPerPiece)
	copy(padded, leaves)

	pieceHashes := make([][32]byte, common.NextPowerOfTwo(numPieces))
	layer = make([]byte, 0, 32*numPieces)
	for i := int64(0); i < numPieces; i++ {
		pieceHashes[i] = MerkleRoot(padded[i*blocksPerPiece : (i+1)*blocksPerPiece])
		layer = append(layer, pieceHashes[i][:]...)
	}
	if extra := pieceHashes[numPieces:]; len(extra) > 0 {
		pad := padPieceHash(blocksPerPiece)
		for i := range extra {
			extra[i] = pad
		}
	}
	return common.PieceRoot(merkleRoot(pieceHashes)), layer
}
