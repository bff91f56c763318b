package metainfo

import (
	"fmt"
	"os"

	"github.com/movsb/metainfo/pkg/bencode"
)

// Bencode serializes the file canonically. The info dict is emitted
// from the cached raw bytes so the infohashes always match the output.
func (f *File) Bencode() ([]byte, error) {
	if f.rawInfo == nil {
		f.RefreshInfoHashes()
	}
	infoValue, err := bencode.Decode(f.rawInfo)
	if err != nil {
		return nil, fmt.Errorf(`metainfo: stale info bytes: %w`, err)
	}

	root := bencode.Dict()
	if f.Announce != `` {
		root.Set(`announce`, bencode.Text(f.Announce))
	}
	if len(f.AnnounceList) > 0 {
		tiers := make([]*bencode.Value, 0, len(f.AnnounceList))
		for _, tier := range f.AnnounceList {
			items := make([]*bencode.Value, 0, len(tier))
			for _, t := range tier {
				items = append(items, bencode.Text(t))
			}
			tiers = append(tiers, bencode.List(items...))
		}
		root.Set(`announce-list`, bencode.List(tiers...))
	}
	if f.Comment != `` {
		root.Set(`comment`, bencode.Text(f.Comment))
	}
	if f.CreatedBy != `` {
		root.Set(`created by`, bencode.Text(f.CreatedBy))
	}
	if f.CreationDate != 0 {
		root.Set(`creation date`, bencode.Integer(f.CreationDate))
	}
	root.Set(`info`, infoValue)
	if len(f.PieceLayers) > 0 {
		layers := bencode.Dict()
		for r, layer := range f.PieceLayers {
			layers.Set(string(r[:]), bencode.String(layer))
		}
		root.Set(`piece layers`, layers)
	}
	if len(f.URLList) > 0 {
		urls := make([]*bencode.Value, 0, len(f.URLList))
		for _, u := range f.URLList {
			urls = append(urls, bencode.Text(u))
		}
		root.Set(`url-list`, bencode.List(urls...))
	}
	for _, it := range f.Extra {
		root.Set(string(it.Key), it.Value)
	}

	return bencode.Encode(root), nil
}

// WriteFile ...
func (f *File) WriteFile(path string) error {
	data, err := f.Bencode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf(`metainfo: write %s: %w`, path, err)
	}
	return nil
}

// buildValue re-encodes the typed info dict, unknown keys included.
func (i *Info) buildValue() *bencode.Value {
	d := bencode.Dict()
	if i.HasLength || len(i.Files) > 0 {
		if i.HasLength {
			d.Set(`length`, bencode.Integer(i.Length))
		} else {
			files := make([]*bencode.Value, 0, len(i.Files))
			for n := range i.Files {
				files = append(files, i.Files[n].buildValue())
			}
			d.Set(`files`, bencode.List(files...))
		}
		d.Set(`pieces`, bencode.String(i.Pieces))
	}
	if i.MetaVersion != 0 {
		d.Set(`meta version`, bencode.Integer(i.MetaVersion))
	}
	if i.FileTree != nil {
		d.Set(`file tree`, i.FileTree.buildValue())
	}
	d.Set(`name`, bencode.Text(i.Name))
	if i.NameUTF8 != `` {
		d.Set(`name.utf-8`, bencode.Text(i.NameUTF8))
	}
	d.Set(`piece length`, bencode.Integer(i.PieceLength))
	if i.Source != `` {
		d.Set(`source`, bencode.Text(i.Source))
	}
	if i.Private != nil {
		private := int64(0)
		if *i.Private {
			private = 1
		}
		d.Set(`private`, bencode.Integer(private))
	}
	for _, it := range i.Extra {
		d.Set(string(it.Key), it.Value)
	}
	return d
}

func (it *Item) buildValue() *bencode.Value {
	d := bencode.Dict()
	if it.Attr != `` {
		d.Set(`attr`, bencode.Text(it.Attr))
	}
	d.Set(`length`, bencode.Integer(it.Length))
	paths := make([]*bencode.Value, 0, len(it.Paths))
	for _, part := range it.Paths {
		paths = append(paths, bencode.Text(part))
	}
	d.Set(`path`, bencode.List(paths...))
	if len(it.PathsUTF8) > 0 {
		utf8 := make([]*bencode.Value, 0, len(it.PathsUTF8))
		for _, part := range it.PathsUTF8 {
			utf8 = append(utf8, bencode.Text(part))
		}
		d.Set(`path.utf-8`, bencode.List(utf8...))
	}
	if len(it.SymlinkPaths) > 0 {
		links := make([]*bencode.Value, 0, len(it.SymlinkPaths))
		for _, part := range it.SymlinkPaths {
			links = append(links, bencode.Text(part))
		}
		d.Set(`symlink path`, bencode.List(links...))
	}
	return d
}

func (t *FileTree) buildValue() *bencode.Value {
	d := bencode.Dict()
	for _, e := range t.Entries {
		if e.File != nil {
			leaf := bencode.Dict()
			leaf.Set(`length`, bencode.Integer(e.File.Length))
			if e.File.HasRoot {
				leaf.Set(`pieces root`, bencode.String(e.File.Root[:]))
			}
			d.Set(e.Name, bencode.Dict().Set(``, leaf))
			continue
		}
		d.Set(e.Name, e.Dir.buildValue())
	}
	return d
}
