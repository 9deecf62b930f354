package service

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	p, err := ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, Page{Number: 1, Size: 5}, p)
	assert.Zero(t, p.Offset())

	p, err = ParsePage("2", "5")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Offset())

	p, err = ParsePage("1", "1000")
	require.NoError(t, err)
	assert.Equal(t, 100, p.Size)

	for _, tc := range [][2]string{{"abc", "5"}, {"1", "x"}, {"0", "5"}, {"1", "-3"}} {
		_, err := ParsePage(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidPagination, tc)
	}
}

func TestParsePage_RejectsOverflowingOffset(t *testing.T) {
	_, err := ParsePage(strconv.Itoa(math.MaxInt), "5")
	assert.ErrorIs(t, err, ErrInvalidPagination)

	_, err = ParsePage(strconv.Itoa(math.MaxInt/100+2), "1000")
	assert.ErrorIs(t, err, ErrInvalidPagination)

	p, err := ParsePage(strconv.Itoa(math.MaxInt/5+1), "5")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p.Offset(), 0)
}
