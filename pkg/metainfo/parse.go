package metainfo

import (
	"fmt"
	"os"

	"github.com/movsb/metainfo/pkg/bencode"
	"github.com/movsb/metainfo/pkg/common"
)

// Options ...
type Options struct {
	// Strict additionally enforces pad-file completeness and naming.
	Strict bool
	// StrictSchema rejects unknown keys instead of preserving them.
	StrictSchema bool
}

// Option ...
type Option func(*Options)

// Strict ...
func Strict() Option {
	return func(o *Options) { o.Strict = true }
}

// StrictSchema ...
func StrictSchema() Option {
	return func(o *Options) { o.StrictSchema = true }
}

// Parse decodes and validates a metainfo file.
func Parse(data []byte, opts ...Option) (*File, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	root, err := bencode.Decode(data)
	if err != nil {
		return nil, err
	}
	if root.Kind != bencode.KindDict {
		return nil, schemaErrorf(`.`, `top-level element is %v, want dictionary`, root.Kind)
	}

	f := &File{}
	p := parser{opts: o}
	for _, it := range root.Dict {
		key, val := string(it.Key), it.Value
		switch key {
		case `announce`:
			f.Announce = p.str(key, val)
		case `announce-list`:
			f.AnnounceList = p.tiers(key, val)
		case `comment`:
			f.Comment = p.str(key, val)
		case `created by`:
			f.CreatedBy = p.str(key, val)
		case `creation date`:
			f.CreationDate = p.integer(key, val)
		case `url-list`:
			f.URLList = p.urlList(key, val)
		case `piece layers`:
			f.PieceLayers = p.pieceLayers(key, val)
		case `info`:
			f.Info = p.info(val)
			start, end := val.Span()
			f.setRawInfo(data[start:end])
		default:
			if o.StrictSchema {
				return nil, schemaErrorf(key, `unknown key`)
			}
			f.Extra = append(f.Extra, it)
		}
		if p.err != nil {
			return nil, p.err
		}
	}
	if f.Info == nil {
		return nil, schemaErrorf(`info`, `required field missing`)
	}

	if err := f.Validate(o); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseFile ...
func ParseFile(path string, opts ...Option) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(`metainfo: read %s: %w`, path, err)
	}
	return Parse(data, opts...)
}

// parser accumulates the first coercion error instead of threading
// error returns through every field accessor.
type parser struct {
	opts Options
	err  error
}

func (p *parser) fail(field, format string, args ...interface{}) {
	if p.err == nil {
		p.err = schemaErrorf(field, format, args...)
	}
}

func (p *parser) str(field string, v *bencode.Value) string {
	if v.Kind != bencode.KindString {
		p.fail(field, `is %v, want string`, v.Kind)
		return ``
	}
	return string(v.Str)
}

func (p *parser) integer(field string, v *bencode.Value) int64 {
	if v.Kind != bencode.KindInteger {
		p.fail(field, `is %v, want integer`, v.Kind)
		return 0
	}
	if v.Big != nil {
		p.fail(field, `out of range`)
		return 0
	}
	return v.Int
}

func (p *parser) nonNegative(field string, v *bencode.Value) int64 {
	n := p.integer(field, v)
	if n < 0 {
		p.fail(field, `is negative`)
		return 0
	}
	return n
}

func (p *parser) strList(field string, v *bencode.Value) []string {
	if v.Kind != bencode.KindList {
		p.fail(field, `is %v, want list`, v.Kind)
		return nil
	}
	out := make([]string, 0, len(v.List))
	for _, item := range v.List {
		out = append(out, p.str(field, item))
	}
	return out
}

func (p *parser) tiers(field string, v *bencode.Value) [][]string {
	if v.Kind != bencode.KindList {
		p.fail(field, `is %v, want list`, v.Kind)
		return nil
	}
	out := make([][]string, 0, len(v.List))
	for _, tier := range v.List {
		out = append(out, p.strList(field, tier))
	}
	return out
}

// urlList accepts both the single-string and the list form of url-list.
func (p *parser) urlList(field string, v *bencode.Value) []string {
	if v.Kind == bencode.KindString {
		return []string{string(v.Str)}
	}
	return p.strList(field, v)
}

func (p *parser) pieceLayers(field string, v *bencode.Value) map[common.PieceRoot][]byte {
	if v.Kind != bencode.KindDict {
		p.fail(field, `is %v, want dictionary`, v.Kind)
		return nil
	}
	layers := make(map[common.PieceRoot][]byte, len(v.Dict))
	for _, it := range v.Dict {
		if len(it.Key) != 32 {
			p.fail(field, `key is %d bytes, want a 32-byte pieces root`, len(it.Key))
			return nil
		}
		if it.Value.Kind != bencode.KindString {
			p.fail(field, `value is %v, want string`, it.Value.Kind)
			return nil
		}
		if len(it.Value.Str)%32 != 0 {
			p.fail(field, `layer length %d is not a multiple of 32`, len(it.Value.Str))
			return nil
		}
		var root common.PieceRoot
		copy(root[:], it.Key)
		layers[root] = it.Value.Str
	}
	return layers
}

func (p *parser) info(v *bencode.Value) *Info {
	if v.Kind != bencode.KindDict {
		p.fail(`info`, `is %v, want dictionary`, v.Kind)
		return nil
	}
	info := &Info{}
	for _, it := range v.Dict {
		key, val := string(it.Key), it.Value
		switch key {
		case `name`:
			info.Name = p.str(`info.name`, val)
		case `name.utf-8`:
			info.NameUTF8 = p.str(`info.name.utf-8`, val)
		case `piece length`:
			info.PieceLength = p.nonNegative(`info.piece length`, val)
		case `source`:
			info.Source = p.str(`info.source`, val)
		case `private`:
			private := p.integer(`info.private`, val) != 0
			info.Private = &private
		case `length`:
			info.Length = p.nonNegative(`info.length`, val)
			info.HasLength = true
		case `files`:
			info.Files = p.fileItems(`info.files`, val)
		case `pieces`:
			if val.Kind != bencode.KindString {
				p.fail(`info.pieces`, `is %v, want string`, val.Kind)
			} else {
				info.Pieces = common.PieceHashes(val.Str)
			}
		case `meta version`:
			info.MetaVersion = p.integer(`info.meta version`, val)
		case `file tree`:
			info.FileTree = p.fileTree(`info.file tree`, val)
		default:
			if p.opts.StrictSchema {
				p.fail(`info.`+key, `unknown key`)
				return nil
			}
			info.Extra = append(info.Extra, it)
		}
		if p.err != nil {
			return nil
		}
	}
	if info.HasLength && len(info.Files) > 0 {
		p.fail(`info`, `has both length and files`)
		return nil
	}
	if info.MetaVersion != 0 && info.MetaVersion != 2 {
		p.fail(`info.meta version`, `unsupported version %d`, info.MetaVersion)
		return nil
	}
	return info
}

func (p *parser) fileItems(field string, v *bencode.Value) []Item {
	if v.Kind != bencode.KindList {
		p.fail(field, `is %v, want list`, v.Kind)
		return nil
	}
	items := make([]Item, 0, len(v.List))
	for n, it := range v.List {
		items = append(items, p.fileItem(fmt.Sprintf(`%s[%d]`, field, n), it))
		if p.err != nil {
			return nil
		}
	}
	return items
}

func (p *parser) fileItem(field string, v *bencode.Value) Item {
	if v.Kind != bencode.KindDict {
		p.fail(field, `is %v, want dictionary`, v.Kind)
		return Item{}
	}
	item := Item{}
	for _, it := range v.Dict {
		key, val := string(it.Key), it.Value
		switch key {
		case `length`:
			item.Length = p.nonNegative(field+`.length`, val)
		case `path`:
			item.Paths = p.strList(field+`.path`, val)
		case `path.utf-8`:
			item.PathsUTF8 = p.strList(field+`.path.utf-8`, val)
		case `attr`:
			item.Attr = p.str(field+`.attr`, val)
		case `symlink path`:
			item.SymlinkPaths = p.strList(field+`.symlink path`, val)
		}
	}
	if len(item.Paths) == 0 && p.err == nil {
		p.fail(field+`.path`, `required field missing`)
	}
	return item
}

func (p *parser) fileTree(field string, v *bencode.Value) *FileTree {
	if v.Kind != bencode.KindDict {
		p.fail(field, `is %v, want dictionary`, v.Kind)
		return nil
	}
	tree := &FileTree{}
	for _, it := range v.Dict {
		name, val := string(it.Key), it.Value
		entry := TreeEntry{Name: name}
		if val.Kind != bencode.KindDict {
			p.fail(field+`.`+name, `is %v, want dictionary`, val.Kind)
			return nil
		}
		if leaf := val.Get(``); leaf != nil {
			if len(val.Dict) != 1 {
				p.fail(field+`.`+name, `file leaf has sibling entries`)
				return nil
			}
			entry.File = p.treeFile(field+`.`+name, leaf)
		} else {
			entry.Dir = p.fileTree(field+`.`+name, val)
		}
		if p.err != nil {
			return nil
		}
		tree.Entries = append(tree.Entries, entry)
	}
	return tree
}

func (p *parser) treeFile(field string, v *bencode.Value) *TreeFile {
	if v.Kind != bencode.KindDict {
		p.fail(field, `is %v, want dictionary`, v.Kind)
		return nil
	}
	file := &TreeFile{}
	for _, it := range v.Dict {
		key, val := string(it.Key), it.Value
		switch key {
		case `length`:
			file.Length = p.nonNegative(field+`.length`, val)
		case `pieces root`:
			if val.Kind != bencode.KindString || len(val.Str) != 32 {
				p.fail(field+`.pieces root`, `want a 32-byte string`)
				return nil
			}
			copy(file.Root[:], val.Str)
			file.HasRoot = true
		}
	}
	return file
}
