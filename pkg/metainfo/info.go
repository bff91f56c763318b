package metainfo

import (
	"strconv"
	"strings"

	"github.com/movsb/metainfo/pkg/bencode"
	"github.com/movsb/metainfo/pkg/common"
)

// Flavor ...
type Flavor int

const (
	FlavorV1 Flavor = iota + 1
	FlavorV2
	FlavorHybrid
)

func (f Flavor) String() string {
	switch f {
	case FlavorV1:
		return `v1`
	case FlavorV2:
		return `v2`
	case FlavorHybrid:
		return `hybrid`
	}
	return `invalid`
}

// Item is one entry of the v1 `files` list.
type Item struct {
	Length    int64
	Paths     []string
	PathsUTF8 []string
	Attr      string

	// symlink target components, when attr contains 'l'.
	SymlinkPaths []string
}

// IsPad reports whether this entry is a BEP 47 pad file.
func (it *Item) IsPad() bool {
	if strings.Contains(it.Attr, `p`) {
		return true
	}
	return len(it.Paths) == 2 && it.Paths[0] == `.pad`
}

// BestPaths returns the utf-8 path when present, the raw one otherwise.
func (it *Item) BestPaths() []string {
	if len(it.PathsUTF8) > 0 {
		return it.PathsUTF8
	}
	return it.Paths
}

// PadItem builds the pad entry covering a gap of length bytes.
func PadItem(length int64) Item {
	return Item{
		Length: length,
		Paths:  []string{`.pad`, strconv.FormatInt(length, 10)},
		Attr:   `p`,
	}
}

// Info is the typed info dictionary, common fields plus the v1 and v2
// tails. Which tails are present decides the flavor.
type Info struct {
	Name        string
	NameUTF8    string
	PieceLength int64
	Source      string
	Private     *bool

	// v1
	Length    int64 // single-file form
	HasLength bool
	Files     []Item
	Pieces    common.PieceHashes

	// v2
	MetaVersion int64
	FileTree    *FileTree

	// unknown keys, preserved verbatim for round-tripping.
	Extra []bencode.DictItem
}

// BestName ...
func (i *Info) BestName() string {
	if i.NameUTF8 != `` {
		return i.NameUTF8
	}
	return i.Name
}

// DisplayName is BestName with invalid UTF-8 replaced. The raw bytes
// stay in Name so re-encoding is lossless.
func (i *Info) DisplayName() string {
	return strings.ToValidUTF8(i.BestName(), "�")
}

// HasV1 reports whether the v1 tail (pieces + length/files) is present.
func (i *Info) HasV1() bool {
	return i.Pieces != nil && (i.HasLength || len(i.Files) > 0)
}

// HasV2 reports whether the v2 tail (meta version 2 + file tree) is present.
func (i *Info) HasV2() bool {
	return i.MetaVersion == 2 && i.FileTree != nil
}

// Flavor ...
func (i *Info) Flavor() Flavor {
	switch {
	case i.HasV1() && i.HasV2():
		return FlavorHybrid
	case i.HasV2():
		return FlavorV2
	case i.HasV1():
		return FlavorV1
	}
	return 0
}

// AllItems returns the v1 file list including pads. A single-file
// torrent is presented as one item named after the torrent.
func (i *Info) AllItems() []Item {
	if i.HasLength {
		return []Item{{Length: i.Length, Paths: []string{i.Name}}}
	}
	return i.Files
}

// RealItems returns the v1 file list with pad files removed.
func (i *Info) RealItems() []Item {
	all := i.AllItems()
	items := make([]Item, 0, len(all))
	for _, it := range all {
		if !it.IsPad() {
			items = append(items, it)
		}
	}
	return items
}

// TotalLength is the payload length excluding pad files.
func (i *Info) TotalLength() int64 {
	if i.HasV2() {
		return i.FileTree.TotalLength()
	}
	var total int64
	for _, it := range i.RealItems() {
		total += it.Length
	}
	return total
}

// PaddedLength is the v1 stream length including pad files.
func (i *Info) PaddedLength() int64 {
	var total int64
	for _, it := range i.AllItems() {
		total += it.Length
	}
	return total
}

// NumPieces is the v1 piece count implied by the padded length. An
// empty payload still occupies one (empty) piece.
func (i *Info) NumPieces() int {
	if i.PieceLength <= 0 {
		return 0
	}
	n := (i.PaddedLength() + i.PieceLength - 1) / i.PieceLength
	if n == 0 {
		n = 1
	}
	return int(n)
}
