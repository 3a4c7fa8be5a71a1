package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size int
		from, lim  int
	}{
		{0, 0, 0, 10},
		{1, 10, 0, 10},
		{2, 10, 10, 10},
		{3, 25, 50, 25},
		{-5, 500, 0, 10},
		{1, 100, 0, 100},
	}
	for _, tc := range cases {
		from, limit := Calculate(tc.page, tc.size)
		assert.Equal(t, tc.from, from, "page=%d size=%d", tc.page, tc.size)
		assert.Equal(t, tc.lim, limit, "page=%d size=%d", tc.page, tc.size)
	}
}
