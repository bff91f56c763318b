package pieces

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/movsb/metainfo/pkg/common"
	"github.com/movsb/metainfo/pkg/hasher"
	"github.com/movsb/metainfo/pkg/metainfo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func v1File(pieceLength int64, pieces []byte, items ...metainfo.Item) *metainfo.File {
	return &metainfo.File{Info: &metainfo.Info{
		Name:        `data`,
		PieceLength: pieceLength,
		Files:       items,
		Pieces:      pieces,
	}}
}

// Two files of exactly one piece length each: piece 1 must resolve to
// the second file alone. A modulo on the piece start would place it at
// offset zero of the first file instead.
func TestV1RangeSubtractionNotModulo(t *testing.T) {
	L := int64(16 * common.KiB)
	f := v1File(L, make([]byte, 2*sha1.Size),
		metainfo.Item{Length: L, Paths: []string{`first`}},
		metainfo.Item{Length: L, Paths: []string{`second`}},
	)

	pr, err := V1Range(f, 0)
	require.NoError(t, err)
	require.Len(t, pr.Ranges, 1)
	assert.Equal(t, []string{`first`}, pr.Ranges[0].Paths)
	assert.EqualValues(t, 0, pr.Ranges[0].Offset)
	assert.EqualValues(t, L, pr.Ranges[0].Length)

	pr, err = V1Range(f, 1)
	require.NoError(t, err)
	require.Len(t, pr.Ranges, 1)
	assert.Equal(t, []string{`second`}, pr.Ranges[0].Paths)
	assert.EqualValues(t, 0, pr.Ranges[0].Offset)
	assert.EqualValues(t, L, pr.Ranges[0].Length)
}

func TestV1RangeSpansFiles(t *testing.T) {
	// five 10 KiB zero files at 32 KiB pieces.
	pieces := append(
		mustHex(t, `5188431849b4613152fd7bdba6a3ff0a4fd6424b`), // 32 KiB zeros
		mustHex(t, `1ca1b255c5c75f83be93ef3370770b9ace9b6427`)..., // 18 KiB zeros
	)
	var items []metainfo.Item
	for _, name := range []string{`a`, `b`, `c`, `d`, `e`} {
		items = append(items, metainfo.Item{Length: 10 * common.KiB, Paths: []string{name}})
	}
	f := v1File(32*common.KiB, pieces, items...)

	pr, err := V1Range(f, 0)
	require.NoError(t, err)
	require.Len(t, pr.Ranges, 4)
	assert.Equal(t, []string{`d`}, pr.Ranges[3].Paths)
	assert.EqualValues(t, 2*common.KiB, pr.Ranges[3].Length)

	zeros := func(n int64) []byte { return make([]byte, n) }
	ok, err := pr.ValidateData(zeros(10*common.KiB), zeros(10*common.KiB), zeros(10*common.KiB), zeros(2*common.KiB))
	require.NoError(t, err)
	assert.True(t, ok)

	// the short final piece: tail of d plus all of e.
	pr, err = V1Range(f, 1)
	require.NoError(t, err)
	require.Len(t, pr.Ranges, 2)
	assert.Equal(t, []string{`d`}, pr.Ranges[0].Paths)
	assert.EqualValues(t, 2*common.KiB, pr.Ranges[0].Offset)
	assert.EqualValues(t, 8*common.KiB, pr.Ranges[0].Length)
	assert.Equal(t, []string{`e`}, pr.Ranges[1].Paths)

	ok, err = pr.ValidateData(zeros(18 * common.KiB))
	require.NoError(t, err)
	assert.True(t, ok)

	// flipping one byte must fail the hash, not error.
	bad := zeros(18 * common.KiB)
	bad[100] = 1
	ok, err = pr.ValidateData(bad)
	require.NoError(t, err)
	assert.False(t, ok)

	// wrong shape is an error, not a mismatch.
	_, err = pr.ValidateData(zeros(17 * common.KiB))
	assert.Error(t, err)
}

func TestV1RangePadsAreVirtualZeros(t *testing.T) {
	contentA := bytes.Repeat([]byte{0xaa}, 20*common.KiB)
	piece0 := sha1.Sum(append(append([]byte{}, contentA...), make([]byte, 12*common.KiB)...))
	contentB := bytes.Repeat([]byte{0xbb}, 20*common.KiB)
	piece1 := sha1.Sum(contentB)

	f := v1File(32*common.KiB, append(piece0[:], piece1[:]...),
		metainfo.Item{Length: 20 * common.KiB, Paths: []string{`a`}},
		metainfo.PadItem(12*common.KiB),
		metainfo.Item{Length: 20 * common.KiB, Paths: []string{`b`}},
	)

	pr, err := V1Range(f, 0)
	require.NoError(t, err)
	require.Len(t, pr.Ranges, 2)
	assert.False(t, pr.Ranges[0].Pad)
	assert.True(t, pr.Ranges[1].Pad)

	// the caller supplies only the real bytes; pad bytes are implied.
	ok, err := pr.ValidateData(contentA)
	require.NoError(t, err)
	assert.True(t, ok)

	pr, err = V1Range(f, 1)
	require.NoError(t, err)
	ok, err = pr.ValidateData(contentB)
	require.NoError(t, err)
	assert.True(t, ok)
}

func v2File(pieceLength int64, name string, length int64, root common.PieceRoot, layer []byte) *metainfo.File {
	tree := &metainfo.FileTree{}
	tree.Insert([]string{name}, &metainfo.TreeFile{Length: length, Root: root, HasRoot: true})
	f := &metainfo.File{Info: &metainfo.Info{
		Name:        `data`,
		PieceLength: pieceLength,
		MetaVersion: 2,
		FileTree:    tree,
	}}
	if layer != nil {
		f.PieceLayers = map[common.PieceRoot][]byte{root: layer}
	}
	return f
}

func TestV2RangeWholeFile(t *testing.T) {
	var root common.PieceRoot
	copy(root[:], mustHex(t, `60aae9c7b428f87e0713e88229e18f0adf12cd7b22a0dd8a92bb2485eb7af242`))
	f := v2File(64*common.KiB, `zeros.bin`, 64*common.KiB, root, nil)

	pr, err := V2Range(f, `zeros.bin`, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pr.Offset)
	assert.EqualValues(t, 64*common.KiB, pr.Length)

	block := make([]byte, 16*common.KiB)
	ok, err := pr.ValidateData(block, block, block, block)
	require.NoError(t, err)
	assert.True(t, ok)

	// any other chunking of the same bytes works too.
	ok, err = pr.ValidateData(make([]byte, 64*common.KiB))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = V2Range(f, `zeros.bin`, 1)
	assert.Error(t, err)
	_, err = V2Range(f, `missing.bin`, 0)
	assert.Error(t, err)
}

func TestV2RangeLayeredFile(t *testing.T) {
	// 1 MiB of zeros at 256 KiB pieces.
	pieceHash := mustHex(t, `0ee38dbbe040ef1d6f2435117c70f2579e768215c91a640e7d855a647084869c`)
	layer := bytes.Repeat(pieceHash, 4)
	var root common.PieceRoot
	copy(root[:], mustHex(t, `515ea9181744b817744ded9d2e8e9dc6a8450c0b0c52e24b5077f302ffbd9008`))
	f := v2File(256*common.KiB, `zeros.bin`, common.MiB, root, layer)

	pr, err := V2Range(f, `zeros.bin`, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 512*common.KiB, pr.Offset)
	assert.EqualValues(t, 256*common.KiB, pr.Length)
	assert.Equal(t, layer[64:96], pr.Expected[:])

	ok, err := pr.ValidateData(make([]byte, 256*common.KiB))
	require.NoError(t, err)
	assert.True(t, ok)

	bad := make([]byte, 256*common.KiB)
	bad[0] = 1
	ok, err = pr.ValidateData(bad)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = V2Range(f, `zeros.bin`, 4)
	assert.Error(t, err)
}

func TestV2RangeShortFinalPiece(t *testing.T) {
	// 40 KiB file at 32 KiB pieces: piece 1 covers the 8 KiB tail.
	content := bytes.Repeat([]byte{0x5a}, 40*common.KiB)
	leaves := [][32]byte{
		sha256.Sum256(content[:16*common.KiB]),
		sha256.Sum256(content[16*common.KiB : 32*common.KiB]),
		sha256.Sum256(content[32*common.KiB:]),
	}
	root, layer := hasher.BuildTree(leaves, 40*common.KiB, 32*common.KiB)
	require.Len(t, layer, 64)

	f := v2File(32*common.KiB, `f.bin`, 40*common.KiB, root, layer)
	pr, err := V2Range(f, `f.bin`, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 32*common.KiB, pr.Offset)
	assert.EqualValues(t, 8*common.KiB, pr.Length)

	ok, err := pr.ValidateData(content[32*common.KiB:])
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWebseedURL(t *testing.T) {
	f := v1File(16*common.KiB, make([]byte, sha1.Size),
		metainfo.Item{Length: 10, Paths: []string{`sub`, `a.bin`}},
	)
	pr, err := V1Range(f, 0)
	require.NoError(t, err)
	assert.Equal(t, `http://seed.example/data/sub/a.bin`, pr.WebseedURL(`http://seed.example/`))
	assert.Equal(t, `http://seed.example/data/sub/a.bin`, pr.WebseedURL(`http://seed.example`))

	// single-file torrents are addressed by name only.
	single := &metainfo.File{Info: &metainfo.Info{
		Name:        `one.bin`,
		PieceLength: 16 * common.KiB,
		Length:      10,
		HasLength:   true,
		Pieces:      make([]byte, sha1.Size),
	}}
	pr, err = V1Range(single, 0)
	require.NoError(t, err)
	assert.Equal(t, `http://seed.example/one.bin`, pr.WebseedURL(`http://seed.example/`))
}
