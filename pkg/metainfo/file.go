package metainfo

import (
	"crypto/sha1"
	"crypto/sha256"

	"github.com/movsb/metainfo/pkg/bencode"
	"github.com/movsb/metainfo/pkg/common"
)

// File is a parsed or assembled metainfo file.
//
// The top-level metadata fields may be mutated freely; Info is treated
// as immutable once the infohashes have been computed. Anything that
// does change an info field must call RefreshInfoHashes afterwards.
type File struct {
	Announce     string
	AnnounceList [][]string
	Comment      string
	CreatedBy    string
	CreationDate int64
	URLList      []string

	Info *Info

	// PieceLayers maps each file's pieces root to the concatenated
	// SHA-256 hashes at the piece-length level of its merkle tree.
	PieceLayers map[common.PieceRoot][]byte

	// unknown top-level keys, preserved verbatim.
	Extra []bencode.DictItem

	// exact bencoding of the info dict, as parsed or last encoded.
	rawInfo []byte

	v1hash common.InfoHash
	v2hash common.InfoHashV2
}

// InfoHash returns the cached v1 infohash (SHA-1 of the info dict bytes).
func (f *File) InfoHash() common.InfoHash {
	return f.v1hash
}

// InfoHashV2 returns the cached v2 infohash (SHA-256 of the info dict bytes).
func (f *File) InfoHashV2() common.InfoHashV2 {
	return f.v2hash
}

// RawInfo returns the exact info-dict bytes the hashes were computed from.
func (f *File) RawInfo() []byte {
	return f.rawInfo
}

// RefreshInfoHashes re-encodes the info dict canonically and recomputes
// both infohashes. Needed after mutating any info field.
func (f *File) RefreshInfoHashes() {
	f.setRawInfo(bencode.Encode(f.Info.buildValue()))
}

func (f *File) setRawInfo(raw []byte) {
	f.rawInfo = raw
	f.v1hash = sha1.Sum(raw)
	f.v2hash = sha256.Sum256(raw)
}

// Flavor ...
func (f *File) Flavor() Flavor {
	return f.Info.Flavor()
}

// TotalLength ...
func (f *File) TotalLength() int64 {
	return f.Info.TotalLength()
}

// FileCount is the number of real payload files.
func (f *File) FileCount() int {
	if f.Info.HasV2() {
		return len(f.Info.FileTree.Flatten())
	}
	return len(f.Info.RealItems())
}

// RealFiles returns the payload files without pads. For v2-only
// torrents the list is derived from the file tree.
func (f *File) RealFiles() []Item {
	if !f.Info.HasV1() && f.Info.HasV2() {
		items := []Item{}
		for _, it := range f.Info.FileTree.Flatten() {
			items = append(items, Item{Length: it.Length, Paths: it.Path})
		}
		return items
	}
	return f.Info.RealItems()
}

// AllFiles returns the v1 catenation order including pad files.
func (f *File) AllFiles() []Item {
	return f.Info.AllItems()
}

// Trackers returns the effective announce tiers: announce-list when it
// covers announce, otherwise announce as a tier of its own ahead of the
// announce-list tiers.
func (f *File) Trackers() [][]string {
	for _, tier := range f.AnnounceList {
		for _, t := range tier {
			if t == f.Announce {
				return f.AnnounceList
			}
		}
	}
	if f.Announce != `` {
		return append([][]string{{f.Announce}}, f.AnnounceList...)
	}
	return f.AnnounceList
}

// LayersFor returns the piece layers entry for a file's root.
func (f *File) LayersFor(root common.PieceRoot) ([]byte, bool) {
	b, ok := f.PieceLayers[root]
	return b, ok
}
