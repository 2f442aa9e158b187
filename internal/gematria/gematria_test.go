package gematria

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimple(t *testing.T) {
	assert.Equal(t, 1, Simple("a"))
	assert.Equal(t, 26, Simple("z"))
	assert.Equal(t, 6, Simple("abc"), "1+2+3")
	assert.Equal(t, Simple("lakers"), Simple("LAKERS"), "case insensitive")
	assert.Equal(t, Simple("lakers"), Simple("L.A. Kers!"), "punctuation and spaces ignored")
	assert.Zero(t, Simple("42 !!"))
}

func TestReverse(t *testing.T) {
	assert.Equal(t, 26, Reverse("a"))
	assert.Equal(t, 1, Reverse("z"))
	// simple + reverse = 27 per letter
	name := "Celtics"
	assert.Equal(t, 27*7, Simple(name)+Reverse(name))
}

func TestReduce(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 0},
		{9, 9},
		{10, 1},
		{11, 11},
		{22, 22},
		{33, 33},
		{29, 11},  // 2+9=11, master preserved
		{38, 11},  // 3+8=11
		{39, 3},   // 3+9=12, 1+2=3
		{48, 3},   // 4+8=12, 1+2=3
		{2178, 9}, // 2+1+7+8=18, 1+8=9
		{-14, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Reduce(tc.in), "Reduce(%d)", tc.in)
	}
}

func TestRead(t *testing.T) {
	p := Read("abc")
	assert.Equal(t, 6, p.Simple)
	assert.Equal(t, 75, p.Reverse, "26+25+24")
	assert.Equal(t, 6, p.SimpleReduced)
	assert.Equal(t, 3, p.ReverseRedux, "7+5=12, 1+2=3")
	assert.Equal(t, []int{6, 75, 6, 3}, p.Values())
}
