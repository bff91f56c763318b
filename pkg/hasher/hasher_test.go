package hasher

import (
	"bytes"
	"context"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/movsb/metainfo/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestHashV1EmptyFile(t *testing.T) {
	path := writeTemp(t, `empty.bin`, nil)
	v1, err := HashV1(context.Background(), []Source{
		{Path: path, TorrentPath: []string{`empty.bin`}, Length: 0},
	}, Options{PieceLength: 16 * common.KiB})
	require.NoError(t, err)
	// an empty payload still has one piece: the SHA-1 of nothing.
	assert.Equal(t, 1, v1.Pieces.Len())
	assert.Equal(t, mustHex(t, `da39a3ee5e6b4b0d3255bfef95601890afd80709`), v1.Pieces.Index(0))
}

func TestHashV1SmallFilesNoPads(t *testing.T) {
	// five 10 KiB zero files at 32 KiB pieces: 50 KiB stream, two
	// pieces of 32 KiB and 18 KiB, both of zeros.
	dir := t.TempDir()
	var sources []Source
	for _, name := range []string{`a`, `b`, `c`, `d`, `e`} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, make([]byte, 10*common.KiB), 0644))
		sources = append(sources, Source{Path: path, TorrentPath: []string{name}, Length: 10 * common.KiB})
	}

	v1, err := HashV1(context.Background(), sources, Options{PieceLength: 32 * common.KiB})
	require.NoError(t, err)
	require.Equal(t, 2, v1.Pieces.Len())
	assert.Equal(t, mustHex(t, `5188431849b4613152fd7bdba6a3ff0a4fd6424b`), v1.Pieces.Index(0))
	assert.Equal(t, mustHex(t, `1ca1b255c5c75f83be93ef3370770b9ace9b6427`), v1.Pieces.Index(1))
}

func TestHashV1WithPads(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, `a`)
	b := filepath.Join(dir, `b`)
	contentA := bytes.Repeat([]byte{0xaa}, 20*common.KiB)
	contentB := bytes.Repeat([]byte{0xbb}, 20*common.KiB)
	require.NoError(t, os.WriteFile(a, contentA, 0644))
	require.NoError(t, os.WriteFile(b, contentB, 0644))

	sources := []Source{
		{Path: a, TorrentPath: []string{`a`}, Length: 20 * common.KiB},
		{Length: 12 * common.KiB, Pad: true},
		{Path: b, TorrentPath: []string{`b`}, Length: 20 * common.KiB},
	}
	v1, err := HashV1(context.Background(), sources, Options{PieceLength: 32 * common.KiB})
	require.NoError(t, err)
	require.Equal(t, 2, v1.Pieces.Len())

	piece0 := sha1.Sum(append(append([]byte{}, contentA...), make([]byte, 12*common.KiB)...))
	piece1 := sha1.Sum(contentB)
	assert.Equal(t, piece0[:], v1.Pieces.Index(0))
	assert.Equal(t, piece1[:], v1.Pieces.Index(1))
}

func TestHashV1ParallelMatchesSerial(t *testing.T) {
	dir := t.TempDir()
	var sources []Source
	for i, name := range []string{`x`, `y`, `z`} {
		path := filepath.Join(dir, name)
		content := bytes.Repeat([]byte{byte(i + 1)}, (100+i*33)*common.KiB)
		require.NoError(t, os.WriteFile(path, content, 0644))
		sources = append(sources, Source{Path: path, TorrentPath: []string{name}, Length: int64(len(content))})
	}

	serial, err := HashV1(context.Background(), sources, Options{PieceLength: 64 * common.KiB, Workers: 1})
	require.NoError(t, err)
	parallel, err := HashV1(context.Background(), sources, Options{PieceLength: 64 * common.KiB, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, serial.Pieces, parallel.Pieces)
}

func TestHashV2SinglePieceFile(t *testing.T) {
	// 64 KiB of zeros at 64 KiB pieces: four zero-block leaves, no layers.
	path := writeTemp(t, `zeros.bin`, make([]byte, 64*common.KiB))
	v2, err := HashV2(context.Background(), []Source{
		{Path: path, TorrentPath: []string{`zeros.bin`}, Length: 64 * common.KiB},
	}, Options{PieceLength: 64 * common.KiB})
	require.NoError(t, err)
	require.Len(t, v2.Files, 1)
	fh := v2.Files[0]
	require.True(t, fh.HasRoot)
	assert.Nil(t, fh.Layer)
	assert.Equal(t, `60aae9c7b428f87e0713e88229e18f0adf12cd7b22a0dd8a92bb2485eb7af242`, fh.Root.String())
}

func TestHashV2LargeFile(t *testing.T) {
	// 1 MiB of zeros at 256 KiB pieces: four pieces, each the root of
	// sixteen zero-block leaves.
	path := writeTemp(t, `zeros.bin`, make([]byte, common.MiB))
	v2, err := HashV2(context.Background(), []Source{
		{Path: path, TorrentPath: []string{`zeros.bin`}, Length: common.MiB},
	}, Options{PieceLength: 256 * common.KiB})
	require.NoError(t, err)
	fh := v2.Files[0]
	require.True(t, fh.HasRoot)
	require.Len(t, fh.Layer, 32*4)

	pieceHash := mustHex(t, `0ee38dbbe040ef1d6f2435117c70f2579e768215c91a640e7d855a647084869c`)
	for i := 0; i < 4; i++ {
		assert.Equal(t, pieceHash, fh.Layer[32*i:32*(i+1)])
	}
	assert.Equal(t, `515ea9181744b817744ded9d2e8e9dc6a8450c0b0c52e24b5077f302ffbd9008`, fh.Root.String())
}

func TestHashV2EmptyFile(t *testing.T) {
	path := writeTemp(t, `empty.bin`, nil)
	v2, err := HashV2(context.Background(), []Source{
		{Path: path, TorrentPath: []string{`empty.bin`}, Length: 0},
	}, Options{PieceLength: 16 * common.KiB})
	require.NoError(t, err)
	assert.False(t, v2.Files[0].HasRoot)
	assert.Nil(t, v2.Files[0].Layer)
}

func TestHashV2ParallelMatchesSerial(t *testing.T) {
	dir := t.TempDir()
	var sources []Source
	for i := 0; i < 6; i++ {
		name := string(rune('a' + i))
		path := filepath.Join(dir, name)
		content := bytes.Repeat([]byte{byte(i)}, (17+i*29)*common.KiB)
		require.NoError(t, os.WriteFile(path, content, 0644))
		sources = append(sources, Source{Path: path, TorrentPath: []string{name}, Length: int64(len(content))})
	}

	serial, err := HashV2(context.Background(), sources, Options{PieceLength: 32 * common.KiB, Workers: 1})
	require.NoError(t, err)
	parallel, err := HashV2(context.Background(), sources, Options{PieceLength: 32 * common.KiB, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, serial.Files, parallel.Files)
}

func TestHashHybridSharedRead(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, `a`)
	b := filepath.Join(dir, `b`)
	contentA := bytes.Repeat([]byte{0x11}, 20*common.KiB)
	contentB := bytes.Repeat([]byte{0x22}, 20*common.KiB)
	require.NoError(t, os.WriteFile(a, contentA, 0644))
	require.NoError(t, os.WriteFile(b, contentB, 0644))

	sources := []Source{
		{Path: a, TorrentPath: []string{`a`}, Length: 20 * common.KiB},
		{Length: 12 * common.KiB, Pad: true},
		{Path: b, TorrentPath: []string{`b`}, Length: 20 * common.KiB},
	}
	v1, v2, err := HashHybrid(context.Background(), sources, Options{PieceLength: 32 * common.KiB})
	require.NoError(t, err)

	// v1 side matches a plain v1 run over the same stream.
	plain, err := HashV1(context.Background(), sources, Options{PieceLength: 32 * common.KiB})
	require.NoError(t, err)
	assert.Equal(t, plain.Pieces, v1.Pieces)

	// v2 side skips the pad and matches per-file tree hashing.
	require.Len(t, v2.Files, 2)
	only, err := HashV2(context.Background(), []Source{sources[0], sources[2]}, Options{PieceLength: 32 * common.KiB})
	require.NoError(t, err)
	assert.Equal(t, only.Files, v2.Files)

	// spot-check a root against a hand-built tree: a 20 KiB file at
	// 32 KiB pieces is two leaves, already a full power of two.
	leaves := [][32]byte{
		sha256.Sum256(contentA[:16*common.KiB]),
		sha256.Sum256(contentA[16*common.KiB:]),
	}
	assert.Equal(t, common.PieceRoot(MerkleRoot(leaves)), v2.Files[0].Root)
}

func TestHashHybridParallelMatchesSerial(t *testing.T) {
	dir := t.TempDir()
	var sources []Source
	for i := 0; i < 4; i++ {
		name := string(rune('a' + i))
		path := filepath.Join(dir, name)
		content := bytes.Repeat([]byte{byte(0x30 + i)}, (50+i*21)*common.KiB)
		require.NoError(t, os.WriteFile(path, content, 0644))
		sources = append(sources, Source{Path: path, TorrentPath: []string{name}, Length: int64(len(content))})
		if gap := int64(len(content)) % (64 * common.KiB); gap != 0 && i < 3 {
			sources = append(sources, Source{Length: 64*common.KiB - gap, Pad: true})
		}
	}

	v1s, v2s, err := HashHybrid(context.Background(), sources, Options{PieceLength: 64 * common.KiB, Workers: 1})
	require.NoError(t, err)
	v1p, v2p, err := HashHybrid(context.Background(), sources, Options{PieceLength: 64 * common.KiB, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, v1s.Pieces, v1p.Pieces)
	assert.Equal(t, v2s.Files, v2p.Files)
}

func TestHashCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeTemp(t, `a`, make([]byte, 256*common.KiB))
	sources := []Source{{Path: path, TorrentPath: []string{`a`}, Length: 256 * common.KiB}}

	_, err := HashV1(ctx, sources, Options{PieceLength: 32 * common.KiB})
	assert.ErrorIs(t, err, context.Canceled)

	_, err = HashV2(ctx, sources, Options{PieceLength: 32 * common.KiB})
	assert.ErrorIs(t, err, context.Canceled)

	_, _, err = HashHybrid(ctx, sources, Options{PieceLength: 32 * common.KiB, Workers: 2})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildTreeSmallFilePadding(t *testing.T) {
	// a sub-piece file pads its leaves to at least a piece's worth of
	// blocks: one 16 KiB block at 64 KiB pieces behaves as four leaves.
	leaf := sha256.Sum256(make([]byte, 16*common.KiB))
	root, layer := BuildTree([][32]byte{leaf}, 16*common.KiB, 64*common.KiB)
	assert.Nil(t, layer)
	want := MerkleRoot([][32]byte{leaf, {}, {}, {}})
	assert.Equal(t, common.PieceRoot(want), root)
}
