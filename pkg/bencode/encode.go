package bencode

import (
	"bytes"
	"sort"
	"strconv"
)

// Encode serializes a value into canonical bencode: integers without
// leading zeros or sign noise, dictionary keys in strictly ascending
// byte order, strings verbatim. Decoding the result yields an equal value.
func Encode(v *Value) []byte {
	buf := bytes.Buffer{}
	encodeValue(&buf, v)
	return buf.Bytes()
}

func encodeValue(buf *bytes.Buffer, v *Value) {
	switch v.Kind {
	case KindInteger:
		buf.WriteByte('i')
		if v.Big != nil {
			buf.WriteString(v.Big.String())
		} else {
			buf.WriteString(strconv.FormatInt(v.Int, 10))
		}
		buf.WriteByte('e')
	case KindString:
		buf.WriteString(strconv.Itoa(len(v.Str)))
		buf.WriteByte(':')
		buf.Write(v.Str)
	case KindList:
		buf.WriteByte('l')
		for _, item := range v.List {
			encodeValue(buf, item)
		}
		buf.WriteByte('e')
	case KindDict:
		buf.WriteByte('d')
		for _, it := range sortedItems(v.Dict) {
			buf.WriteString(strconv.Itoa(len(it.Key)))
			buf.WriteByte(':')
			buf.Write(it.Key)
			encodeValue(buf, it.Value)
		}
		buf.WriteByte('e')
	default:
		panic(`bencode: encode of invalid value`)
	}
}

// sortedItems returns the items in ascending key order. Decoded
// dictionaries are already ascending; hand-built ones may not be.
func sortedItems(items []DictItem) []DictItem {
	if sort.SliceIsSorted(items, func(i, j int) bool {
		return bytes.Compare(items[i].Key, items[j].Key) < 0
	}) {
		return items
	}
	sorted := append([]DictItem(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Key, sorted[j].Key) < 0
	})
	return sorted
}
