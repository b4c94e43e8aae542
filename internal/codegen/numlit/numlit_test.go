package numlit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	cases := []struct {
		text string
		want uint64
	}{
		{"42", 42},
		{"42u64", 42},
		{"231", 231},
		{"0", 0},
		{"7u8", 7},
		{"1_000_000", 1000000},
		{"97i32", 97},
	}
	for _, c := range cases {
		got, err := ParseInt(c.text)
		require.NoError(t, err, c.text)
		assert.Equal(t, c.want, got, c.text)
	}
}

func TestParseIntRejectsGarbage(t *testing.T) {
	_, err := ParseInt("abc")
	assert.Error(t, err)
}

func TestFloat32Bits(t *testing.T) {
	cases := []struct {
		text string
		want uint32
	}{
		{"2.0f32", 0x40000000},
		{"40.0f32", 0x42200000},
		{"0.0f32", 0x00000000},
		{"1.5", 0x3fc00000},
	}
	for _, c := range cases {
		got, err := Float32Bits(c.text)
		require.NoError(t, err, c.text)
		assert.Equal(t, c.want, got, c.text)
	}
}
