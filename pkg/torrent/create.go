package torrent

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/movsb/metainfo/pkg/common"
	"github.com/movsb/metainfo/pkg/hasher"
	"github.com/movsb/metainfo/pkg/metainfo"
)

// names never included in a torrent.
var excludedNames = map[string]bool{
	`.DS_Store`: true,
	`Thumbs.db`: true,
}

// Creator assembles a metainfo file from a file or directory tree.
type Creator struct {
	// Root is the file or directory to share.
	Root string

	Flavor metainfo.Flavor

	// PieceLength must be a power of two >= 16 KiB; zero picks one
	// automatically from the payload size.
	PieceLength int64

	// Trackers become announce / announce-list, one tier per entry.
	// TrackerTiers declares tiers explicitly instead.
	Trackers     []string
	TrackerTiers [][]string

	WebSeeds  []string
	Comment   string
	CreatedBy string
	Source    string
	Private   bool

	// NoDate leaves creation date unset.
	NoDate bool

	// PadFiles aligns every file to a piece boundary with BEP 47 pad
	// files. Hybrid torrents always pad; plain v1 only when asked.
	PadFiles bool

	Workers  int
	Progress func(n int64)
}

// NewCreator ...
func NewCreator(root string, flavor metainfo.Flavor) *Creator {
	return &Creator{Root: root, Flavor: flavor}
}

type entry struct {
	abs    string
	parts  []string
	length int64
}

// Create enumerates, hashes, and assembles. No partial model is ever
// returned: the first error aborts the whole run.
func (c *Creator) Create(ctx context.Context) (*metainfo.File, error) {
	stat, err := os.Stat(c.Root)
	if err != nil {
		return nil, fmt.Errorf(`creator: stat failed: %w`, err)
	}

	var (
		name    string
		entries []entry
		single  bool
	)
	switch {
	case stat.Mode().IsRegular():
		abs, err := filepath.Abs(c.Root)
		if err != nil {
			return nil, fmt.Errorf(`creator: %w`, err)
		}
		name = filepath.Base(abs)
		entries = []entry{{abs: abs, parts: []string{name}, length: stat.Size()}}
		single = true
	case stat.IsDir():
		name = filepath.Base(c.Root)
		if abs, err := filepath.Abs(c.Root); err == nil {
			name = filepath.Base(abs)
		}
		if entries, err = c.enumerate(); err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf(`creator: no files under %s`, c.Root)
		}
	default:
		return nil, fmt.Errorf(`creator: invalid file type: %v`, stat.Mode())
	}

	var total int64
	for _, e := range entries {
		total += e.length
	}
	pieceLength := c.PieceLength
	if pieceLength == 0 {
		pieceLength = autoPieceLength(total)
	}
	if !common.PowerOfTwo(pieceLength) || pieceLength < common.MinPieceLength {
		return nil, fmt.Errorf(`creator: piece length %d is not a power of two >= %d`, pieceLength, common.MinPieceLength)
	}

	pad := c.Flavor == metainfo.FlavorHybrid || (c.Flavor == metainfo.FlavorV1 && c.PadFiles)
	sources := buildSources(entries, single, pieceLength, pad)

	opts := hasher.Options{PieceLength: pieceLength, Workers: c.Workers, Progress: c.Progress}
	info := &metainfo.Info{
		Name:        name,
		PieceLength: pieceLength,
		Source:      c.Source,
	}
	if c.Private {
		private := true
		info.Private = &private
	}

	var layers map[common.PieceRoot][]byte
	switch c.Flavor {
	case metainfo.FlavorV1:
		v1, err := hasher.HashV1(ctx, sources, opts)
		if err != nil {
			return nil, err
		}
		c.fillV1(info, sources, single, v1)
	case metainfo.FlavorV2:
		v2, err := hasher.HashV2(ctx, sources, opts)
		if err != nil {
			return nil, err
		}
		layers = c.fillV2(info, v2)
	case metainfo.FlavorHybrid:
		v1, v2, err := hasher.HashHybrid(ctx, sources, opts)
		if err != nil {
			return nil, err
		}
		c.fillV1(info, sources, single, v1)
		layers = c.fillV2(info, v2)
	default:
		return nil, fmt.Errorf(`creator: invalid flavor: %v`, c.Flavor)
	}

	f := &metainfo.File{
		Comment:     c.Comment,
		CreatedBy:   c.CreatedBy,
		URLList:     c.WebSeeds,
		Info:        info,
		PieceLayers: layers,
	}
	if f.CreatedBy == `` {
		f.CreatedBy = `metainfo (github.com/movsb/metainfo)`
	}
	if !c.NoDate {
		f.CreationDate = time.Now().Unix()
	}
	c.fillTrackers(f)

	f.RefreshInfoHashes()
	if err := f.Validate(metainfo.Options{Strict: pad}); err != nil {
		return nil, err
	}
	return f, nil
}

// enumerate walks the root collecting regular files in sorted
// component order, rejecting unsafe names.
func (c *Creator) enumerate() ([]entry, error) {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, fmt.Errorf(`creator: %w`, err)
	}

	var entries []entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if excludedNames[d.Name()] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		parts := strings.Split(rel, string(os.PathSeparator))
		for _, part := range parts {
			if part == `` || part == `.` || part == `..` || strings.ContainsAny(part, `/\`) {
				return fmt.Errorf(`creator: unsafe path component %q in %s`, part, rel)
			}
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf(`creator: stat %s: %w`, rel, err)
		}
		entries = append(entries, entry{abs: path, parts: parts, length: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// buildSources interleaves pad entries so each file after a non-aligned
// one starts on a piece boundary.
func buildSources(entries []entry, single bool, pieceLength int64, pad bool) []hasher.Source {
	sources := make([]hasher.Source, 0, len(entries))
	var offset int64
	for n, e := range entries {
		sources = append(sources, hasher.Source{
			Path:        e.abs,
			TorrentPath: e.parts,
			Length:      e.length,
		})
		offset += e.length
		last := n == len(entries)-1
		if pad && !single && !last {
			if gap := offset % pieceLength; gap != 0 {
				sources = append(sources, hasher.Source{
					Length: pieceLength - gap,
					Pad:    true,
				})
				offset += pieceLength - gap
			}
		}
	}
	return sources
}

func (c *Creator) fillV1(info *metainfo.Info, sources []hasher.Source, single bool, v1 *hasher.V1Result) {
	info.Pieces = v1.Pieces
	if single {
		info.Length = sources[0].Length
		info.HasLength = true
		return
	}
	items := make([]metainfo.Item, 0, len(sources))
	for _, src := range sources {
		if src.Pad {
			items = append(items, metainfo.PadItem(src.Length))
			continue
		}
		items = append(items, metainfo.Item{Length: src.Length, Paths: src.TorrentPath})
	}
	info.Files = items
}

func (c *Creator) fillV2(info *metainfo.Info, v2 *hasher.V2Result) map[common.PieceRoot][]byte {
	info.MetaVersion = 2
	info.FileTree = &metainfo.FileTree{}
	layers := map[common.PieceRoot][]byte{}
	for _, fh := range v2.Files {
		leaf := &metainfo.TreeFile{Length: fh.Length, Root: fh.Root, HasRoot: fh.HasRoot}
		info.FileTree.Insert(fh.TorrentPath, leaf)
		if fh.Layer != nil {
			layers[fh.Root] = fh.Layer
		}
	}
	if len(layers) == 0 {
		return nil
	}
	return layers
}

func (c *Creator) fillTrackers(f *metainfo.File) {
	tiers := c.TrackerTiers
	if len(tiers) == 0 {
		for _, t := range c.Trackers {
			tiers = append(tiers, []string{t})
		}
	}
	if len(tiers) == 0 {
		return
	}
	f.Announce = tiers[0][0]
	if len(tiers) > 1 || len(tiers[0]) > 1 {
		f.AnnounceList = tiers
	}
}

// autoPieceLength picks the smallest power-of-two piece length, from
// 256 KiB up, that keeps the torrent under 20000 pieces.
func autoPieceLength(totalSize int64) int64 {
	const maxPieceCount = 20000
	pieceLength := int64(common.DefaultPieceLength)
	for {
		count := totalSize / pieceLength
		if totalSize%pieceLength != 0 {
			count++
		}
		if count <= maxPieceCount {
			return pieceLength
		}
		pieceLength *= 2
	}
}
