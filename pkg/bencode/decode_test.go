package bencode

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScalars(t *testing.T) {
	v, err := Decode([]byte(`i42e`))
	require.NoError(t, err)
	assert.Equal(t, KindInteger, v.Kind)
	assert.EqualValues(t, 42, v.Int)

	v, err = Decode([]byte(`i-42e`))
	require.NoError(t, err)
	assert.EqualValues(t, -42, v.Int)

	v, err = Decode([]byte(`i0e`))
	require.NoError(t, err)
	assert.EqualValues(t, 0, v.Int)

	v, err = Decode([]byte(`4:spam`))
	require.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, `spam`, string(v.Str))

	v, err = Decode([]byte(`0:`))
	require.NoError(t, err)
	assert.Len(t, v.Str, 0)
}

func TestDecodeBigInteger(t *testing.T) {
	v, err := Decode([]byte(`i184467440737095516151234e`))
	require.NoError(t, err)
	require.NotNil(t, v.Big)
	want, _ := new(big.Int).SetString(`184467440737095516151234`, 10)
	assert.Zero(t, v.Big.Cmp(want))
}

func TestDecodeCompound(t *testing.T) {
	v, err := Decode([]byte(`l4:spami42ee`))
	require.NoError(t, err)
	require.Equal(t, KindList, v.Kind)
	require.Len(t, v.List, 2)
	assert.Equal(t, `spam`, string(v.List[0].Str))
	assert.EqualValues(t, 42, v.List[1].Int)

	v, err = Decode([]byte(`d3:bar4:spam3:fooi42ee`))
	require.NoError(t, err)
	require.Equal(t, KindDict, v.Kind)
	assert.Equal(t, `spam`, string(v.Get(`bar`).Str))
	assert.EqualValues(t, 42, v.Get(`foo`).Int)
	assert.Nil(t, v.Get(`baz`))
}

func TestDecodeEmptyKeyFirst(t *testing.T) {
	// the v2 file tree uses an empty key as the file sentinel,
	// it must sort before everything else.
	v, err := Decode([]byte(`d0:i1e1:ai2ee`))
	require.NoError(t, err)
	assert.EqualValues(t, 1, v.Get(``).Int)
	assert.EqualValues(t, 2, v.Get(`a`).Int)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason SyntaxReason
		offset int
	}{
		{`empty`, ``, ReasonUnexpectedEOF, 0},
		{`bad header`, `x`, ReasonBadHeader, 0},
		{`unterminated integer`, `i42`, ReasonUnterminated, 0},
		{`empty integer`, `ie`, ReasonBadInteger, 0},
		{`bare minus`, `i-e`, ReasonBadInteger, 0},
		{`leading zero`, `i042e`, ReasonLeadingZero, 0},
		{`negative zero`, `i-0e`, ReasonNegativeZero, 0},
		{`short string`, `5:spam`, ReasonUnexpectedEOF, 0},
		{`length leading zero`, `04:spam`, ReasonLeadingZero, 0},
		{`length overflow`, `99999999999:x`, ReasonLengthOverflow, 0},
		{`unterminated list`, `l4:spam`, ReasonUnterminated, 0},
		{`unterminated dict`, `d3:foo3:bar`, ReasonUnterminated, 0},
		{`non-string key`, `di1e3:bare`, ReasonNonStringKey, 1},
		{`non-ascending keys`, `d1:b1:x1:a1:ye`, ReasonNonAscendingKey, 7},
		{`duplicate keys`, `d1:a1:x1:a1:ye`, ReasonDuplicateKey, 7},
		{`trailing data`, `i42etrailing`, ReasonTrailingData, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			var se *SyntaxError
			require.True(t, errors.As(err, &se), `want SyntaxError, got %v`, err)
			assert.Equal(t, tt.reason, se.Reason)
			assert.Equal(t, tt.offset, se.Offset)
		})
	}
}

func TestDecodeSomeLeavesRemainder(t *testing.T) {
	v, n, err := DecodeSome([]byte(`i42e4:next`))
	require.NoError(t, err)
	assert.EqualValues(t, 42, v.Int)
	assert.Equal(t, 4, n)
}

func TestSpanCoversNestedValue(t *testing.T) {
	data := []byte(`d4:infod6:lengthi10e4:name1:ae3:key5:valuee`)
	v, err := Decode(data)
	require.NoError(t, err)
	info := v.Get(`info`)
	require.NotNil(t, info)
	start, end := info.Span()
	assert.Equal(t, `d6:lengthi10e4:name1:ae`, string(data[start:end]))
}
