package bencode

import (
	"bytes"
	"math"
	"math/big"
)

// Decode parses a single bencode element occupying the whole buffer.
// Anything left over after the top-level element is an error.
func Decode(data []byte) (*Value, error) {
	v, n, err := DecodeSome(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, syntaxError(n, ReasonTrailingData)
	}
	return v, nil
}

// DecodeSome parses a single bencode element from the head of the buffer
// and returns it together with the number of bytes consumed.
func DecodeSome(data []byte) (*Value, int, error) {
	d := decoder{data: data}
	v, err := d.value()
	if err != nil {
		return nil, 0, err
	}
	return v, d.pos, nil
}

type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) value() (*Value, error) {
	if d.pos >= len(d.data) {
		return nil, syntaxError(d.pos, ReasonUnexpectedEOF)
	}
	start := d.pos
	var v *Value
	var err error
	switch c := d.data[d.pos]; {
	case c == 'i':
		v, err = d.integer()
	case c == 'l':
		v, err = d.list()
	case c == 'd':
		v, err = d.dict()
	case c >= '0' && c <= '9':
		v, err = d.str()
	default:
		return nil, syntaxError(d.pos, ReasonBadHeader)
	}
	if err != nil {
		return nil, err
	}
	v.start, v.end = start, d.pos
	return v, nil
}

func (d *decoder) integer() (*Value, error) {
	start := d.pos
	d.pos++ // 'i'
	end := bytes.IndexByte(d.data[d.pos:], 'e')
	if end < 0 {
		return nil, syntaxError(start, ReasonUnterminated)
	}
	digits := d.data[d.pos : d.pos+end]
	neg := false
	if len(digits) > 0 && digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return nil, syntaxError(start, ReasonBadInteger)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, syntaxError(start, ReasonBadInteger)
		}
	}
	if digits[0] == '0' {
		if neg {
			return nil, syntaxError(start, ReasonNegativeZero)
		}
		if len(digits) > 1 {
			return nil, syntaxError(start, ReasonLeadingZero)
		}
	}

	v := &Value{Kind: KindInteger}
	i, overflow := parseInt64(digits, neg)
	if overflow {
		b, ok := new(big.Int).SetString(string(d.data[start+1:d.pos+end]), 10)
		if !ok {
			return nil, syntaxError(start, ReasonBadInteger)
		}
		v.Big = b
	} else {
		v.Int = i
	}
	d.pos += end + 1
	return v, nil
}

// parseInt64 avoids strconv so overflow can fall back to big integers.
func parseInt64(digits []byte, neg bool) (int64, bool) {
	var n uint64
	for _, c := range digits {
		if n > (math.MaxUint64-uint64(c-'0'))/10 {
			return 0, true
		}
		n = n*10 + uint64(c-'0')
	}
	if neg {
		if n > uint64(math.MaxInt64)+1 {
			return 0, true
		}
		return -int64(n), false
	}
	if n > math.MaxInt64 {
		return 0, true
	}
	return int64(n), false
}

func (d *decoder) str() (*Value, error) {
	start := d.pos
	colon := bytes.IndexByte(d.data[d.pos:], ':')
	if colon < 0 {
		return nil, syntaxError(start, ReasonUnterminated)
	}
	digits := d.data[d.pos : d.pos+colon]
	if len(digits) == 0 {
		return nil, syntaxError(start, ReasonBadLength)
	}
	if digits[0] == '-' {
		return nil, syntaxError(start, ReasonNegativeLength)
	}
	if digits[0] == '0' && len(digits) > 1 {
		return nil, syntaxError(start, ReasonLeadingZero)
	}
	var n int64
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, syntaxError(start, ReasonBadLength)
		}
		n = n*10 + int64(c-'0')
		if n > math.MaxInt32 {
			return nil, syntaxError(start, ReasonLengthOverflow)
		}
	}
	d.pos += colon + 1
	if int64(len(d.data)-d.pos) < n {
		return nil, syntaxError(start, ReasonUnexpectedEOF)
	}
	s := d.data[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return &Value{Kind: KindString, Str: s}, nil
}

func (d *decoder) list() (*Value, error) {
	start := d.pos
	d.pos++ // 'l'
	v := &Value{Kind: KindList}
	for {
		if d.pos >= len(d.data) {
			return nil, syntaxError(start, ReasonUnterminated)
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return v, nil
		}
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		v.List = append(v.List, item)
	}
}

func (d *decoder) dict() (*Value, error) {
	start := d.pos
	d.pos++ // 'd'
	v := &Value{Kind: KindDict}
	var lastKey []byte
	haveKey := false
	for {
		if d.pos >= len(d.data) {
			return nil, syntaxError(start, ReasonUnterminated)
		}
		if d.data[d.pos] == 'e' {
			d.pos++
			return v, nil
		}
		keyAt := d.pos
		if c := d.data[d.pos]; c < '0' || c > '9' {
			return nil, syntaxError(keyAt, ReasonNonStringKey)
		}
		key, err := d.str()
		if err != nil {
			return nil, err
		}
		if haveKey {
			switch c := bytes.Compare(lastKey, key.Str); {
			case c == 0:
				return nil, syntaxError(keyAt, ReasonDuplicateKey)
			case c > 0:
				return nil, syntaxError(keyAt, ReasonNonAscendingKey)
			}
		}
		lastKey, haveKey = key.Str, true
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		v.Dict = append(v.Dict, DictItem{Key: key.Str, Value: val})
	}
}
