package metainfo

import (
	"sort"

	"github.com/movsb/metainfo/pkg/common"
)

// FileTree is the v2 `file tree` dictionary: a directory whose entries
// are either subdirectories or file leaves, kept in key order.
type FileTree struct {
	Entries []TreeEntry
}

// TreeEntry ...
type TreeEntry struct {
	Name string

	// exactly one of these is set.
	Dir  *FileTree
	File *TreeFile
}

// TreeFile is a file leaf: the dictionary under the empty-key sentinel.
type TreeFile struct {
	Length  int64
	Root    common.PieceRoot
	HasRoot bool
}

// TreeItem is one file from a flattened tree.
type TreeItem struct {
	Path    []string
	Length  int64
	Root    common.PieceRoot
	HasRoot bool
}

// Lookup descends the tree along path components and returns the leaf.
func (t *FileTree) Lookup(path []string) *TreeFile {
	cur := t
	for i, part := range path {
		e := cur.find(part)
		if e == nil {
			return nil
		}
		if i == len(path)-1 {
			return e.File
		}
		if e.Dir == nil {
			return nil
		}
		cur = e.Dir
	}
	return nil
}

func (t *FileTree) find(name string) *TreeEntry {
	for i := range t.Entries {
		if t.Entries[i].Name == name {
			return &t.Entries[i]
		}
	}
	return nil
}

// Insert adds a file leaf at path, creating directories as needed.
// Entries stay sorted by name so serialization is canonical.
func (t *FileTree) Insert(path []string, file *TreeFile) {
	cur := t
	for i, part := range path {
		e := cur.find(part)
		if e == nil {
			at := sort.Search(len(cur.Entries), func(j int) bool {
				return cur.Entries[j].Name >= part
			})
			cur.Entries = append(cur.Entries, TreeEntry{})
			copy(cur.Entries[at+1:], cur.Entries[at:])
			cur.Entries[at] = TreeEntry{Name: part}
			e = &cur.Entries[at]
		}
		if i == len(path)-1 {
			e.File = file
			return
		}
		if e.Dir == nil {
			e.Dir = &FileTree{}
		}
		cur = e.Dir
	}
}

// Flatten returns the files of the tree in key order with full paths.
func (t *FileTree) Flatten() []TreeItem {
	var items []TreeItem
	t.walk(nil, &items)
	return items
}

func (t *FileTree) walk(prefix []string, out *[]TreeItem) {
	for _, e := range t.Entries {
		path := append(append([]string(nil), prefix...), e.Name)
		if e.File != nil {
			*out = append(*out, TreeItem{
				Path:    path,
				Length:  e.File.Length,
				Root:    e.File.Root,
				HasRoot: e.File.HasRoot,
			})
		}
		if e.Dir != nil {
			e.Dir.walk(path, out)
		}
	}
}

// TotalLength ...
func (t *FileTree) TotalLength() int64 {
	var total int64
	for _, it := range t.Flatten() {
		total += it.Length
	}
	return total
}
