package metainfo

import (
	"crypto/sha1"
	"strconv"
	"strings"

	"github.com/movsb/metainfo/pkg/common"
)

// Validate checks the cross-field invariants for the model's flavor.
// Parse runs it automatically; programmatic constructions should call
// it before serializing.
func (f *File) Validate(o Options) error {
	info := f.Info
	if info == nil {
		return schemaErrorf(`info`, `required field missing`)
	}
	if info.Name == `` {
		return schemaErrorf(`info.name`, `required field missing`)
	}
	flavor := info.Flavor()
	if flavor == 0 {
		return schemaErrorf(`info`, `neither v1 (pieces + length/files) nor v2 (meta version + file tree) fields present`)
	}
	if !common.PowerOfTwo(info.PieceLength) || info.PieceLength < common.MinPieceLength {
		return schemaErrorf(`info.piece length`, `%d is not a power of two >= %d`, info.PieceLength, common.MinPieceLength)
	}

	if err := f.validatePaths(); err != nil {
		return err
	}
	if flavor == FlavorV1 || flavor == FlavorHybrid {
		if err := f.validateV1(); err != nil {
			return err
		}
	}
	if flavor == FlavorV2 || flavor == FlavorHybrid {
		if err := f.validateV2(); err != nil {
			return err
		}
	}
	if flavor == FlavorHybrid {
		if err := f.validateHybrid(); err != nil {
			return err
		}
	}
	if o.Strict && (flavor == FlavorV1 || flavor == FlavorHybrid) {
		if err := f.validatePadding(); err != nil {
			return err
		}
	}
	return nil
}

func checkComponent(part string) error {
	switch part {
	case ``:
		return &PathError{Component: part, Msg: `empty component`}
	case `.`, `..`:
		return &PathError{Component: part, Msg: `relative component`}
	}
	if strings.ContainsAny(part, `/\`) {
		return &PathError{Component: part, Msg: `contains a separator`}
	}
	return nil
}

func checkComponents(parts []string) error {
	for _, part := range parts {
		if err := checkComponent(part); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) validatePaths() error {
	info := f.Info
	if err := checkComponent(info.Name); err != nil {
		return err
	}
	for n := range info.Files {
		if err := checkComponents(info.Files[n].Paths); err != nil {
			return err
		}
		if err := checkComponents(info.Files[n].PathsUTF8); err != nil {
			return err
		}
	}
	if info.FileTree != nil {
		for _, it := range info.FileTree.Flatten() {
			if err := checkComponents(it.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *File) validateV1() error {
	info := f.Info
	if len(info.Pieces)%sha1.Size != 0 {
		return invariantErrorf(`pieces length %d is not a multiple of %d`, len(info.Pieces), sha1.Size)
	}
	if want, got := info.NumPieces(), info.Pieces.Len(); want != got {
		return invariantErrorf(`%d piece hashes for a padded length of %d with piece length %d, want %d`,
			got, info.PaddedLength(), info.PieceLength, want)
	}
	return nil
}

func (f *File) validateV2() error {
	info := f.Info
	seen := map[common.PieceRoot]bool{}
	for _, it := range info.FileTree.Flatten() {
		name := strings.Join(it.Path, `/`)
		if it.Length > 0 && !it.HasRoot {
			return invariantErrorf(`file %q has no pieces root`, name)
		}
		if it.Length == 0 {
			if it.HasRoot {
				return invariantErrorf(`empty file %q has a pieces root`, name)
			}
			continue
		}
		layer, ok := f.PieceLayers[it.Root]
		if it.Length > info.PieceLength {
			if !ok {
				return invariantErrorf(`file %q (%d bytes) has no piece layers entry`, name, it.Length)
			}
			pieces := (it.Length + info.PieceLength - 1) / info.PieceLength
			if int64(len(layer)) != 32*pieces {
				return invariantErrorf(`file %q has a %d-byte piece layer, want %d`, name, len(layer), 32*pieces)
			}
			seen[it.Root] = true
		} else if ok {
			return invariantErrorf(`file %q fits one piece but has a piece layers entry`, name)
		}
	}
	for root := range f.PieceLayers {
		if !seen[root] {
			return invariantErrorf(`piece layers entry %s matches no file`, root)
		}
	}
	return nil
}

// validateHybrid checks that the v1 file list (pads removed) and the v2
// file tree describe the same files in the same order.
func (f *File) validateHybrid() error {
	v1 := f.Info.RealItems()
	v2 := f.Info.FileTree.Flatten()
	if len(v1) != len(v2) {
		return invariantErrorf(`v1 lists %d files, v2 tree has %d`, len(v1), len(v2))
	}
	for n := range v1 {
		a := strings.Join(v1[n].BestPaths(), `/`)
		b := strings.Join(v2[n].Path, `/`)
		if a != b {
			return invariantErrorf(`file #%d is %q in v1 but %q in v2`, n, a, b)
		}
		if v1[n].Length != v2[n].Length {
			return invariantErrorf(`file %q is %d bytes in v1 but %d in v2`, a, v1[n].Length, v2[n].Length)
		}
	}
	return nil
}

// validatePadding enforces the strict-mode pad rules: every real file
// except the last ends on a piece boundary (with pads making up the
// difference), and pads are named .pad/<length>.
func (f *File) validatePadding() error {
	items := f.Info.AllItems()
	var offset int64
	for n, it := range items {
		if it.IsPad() {
			want := []string{`.pad`, strconv.FormatInt(it.Length, 10)}
			if len(it.Paths) != 2 || it.Paths[0] != want[0] || it.Paths[1] != want[1] {
				return invariantErrorf(`pad file #%d is named %q, want %q`, n, strings.Join(it.Paths, `/`), strings.Join(want, `/`))
			}
		}
		offset += it.Length
		last := n == len(items)-1
		if !last && offset%f.Info.PieceLength != 0 {
			// mid-piece boundary is fine only when the next entry is the pad
			if !items[n+1].IsPad() {
				return invariantErrorf(`file %q ends mid-piece at offset %d without a pad file`,
					strings.Join(it.BestPaths(), `/`), offset)
			}
		}
	}
	return nil
}
