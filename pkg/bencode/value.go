package bencode

import (
	"bytes"
	"math/big"
)

// Kind ...
type Kind int

const (
	KindInteger Kind = iota + 1
	KindString
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return `integer`
	case KindString:
		return `string`
	case KindList:
		return `list`
	case KindDict:
		return `dictionary`
	}
	return `invalid`
}

// Value is one bencode element: an integer, a byte string,
// a list, or a dictionary with byte-string keys.
type Value struct {
	Kind Kind

	// Int holds the integer value. Big is non-nil instead
	// when the input did not fit into an int64.
	Int int64
	Big *big.Int

	Str  []byte
	List []*Value
	Dict []DictItem

	// span in the buffer this value was decoded from.
	start, end int
}

// DictItem ...
type DictItem struct {
	Key   []byte
	Value *Value
}

// Span returns the byte range [start, end) this value occupied
// in the buffer it was decoded from. Zero for built values.
func (v *Value) Span() (int, int) {
	return v.start, v.end
}

// Integer ...
func Integer(i int64) *Value {
	return &Value{Kind: KindInteger, Int: i}
}

// String ...
func String(s []byte) *Value {
	return &Value{Kind: KindString, Str: s}
}

// Text ...
func Text(s string) *Value {
	return &Value{Kind: KindString, Str: []byte(s)}
}

// List ...
func List(items ...*Value) *Value {
	return &Value{Kind: KindList, List: items}
}

// Dict ...
func Dict() *Value {
	return &Value{Kind: KindDict}
}

// Get returns the value for key, or nil.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != KindDict {
		return nil
	}
	for _, it := range v.Dict {
		if string(it.Key) == key {
			return it.Value
		}
	}
	return nil
}

// Set inserts or replaces key, keeping the dictionary sorted by raw key bytes.
func (v *Value) Set(key string, val *Value) *Value {
	k := []byte(key)
	for i, it := range v.Dict {
		c := bytes.Compare(it.Key, k)
		if c == 0 {
			v.Dict[i].Value = val
			return v
		}
		if c > 0 {
			v.Dict = append(v.Dict, DictItem{})
			copy(v.Dict[i+1:], v.Dict[i:])
			v.Dict[i] = DictItem{Key: k, Value: val}
			return v
		}
	}
	v.Dict = append(v.Dict, DictItem{Key: k, Value: val})
	return v
}

// Delete removes key if present.
func (v *Value) Delete(key string) {
	for i, it := range v.Dict {
		if string(it.Key) == key {
			v.Dict = append(v.Dict[:i], v.Dict[i+1:]...)
			return
		}
	}
}

// Equal reports deep structural equality.
func (v *Value) Equal(other *Value) bool {
	if v == nil || other == nil {
		return v == other
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInteger:
		if (v.Big == nil) != (other.Big == nil) {
			return false
		}
		if v.Big != nil {
			return v.Big.Cmp(other.Big) == 0
		}
		return v.Int == other.Int
	case KindString:
		return bytes.Equal(v.Str, other.Str)
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(v.Dict) != len(other.Dict) {
			return false
		}
		for i := range v.Dict {
			if !bytes.Equal(v.Dict[i].Key, other.Dict[i].Key) {
				return false
			}
			if !v.Dict[i].Value.Equal(other.Dict[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}
