package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		in         PageRequest
		want       PageRequest
		wantOffset int
	}{
		{PageRequest{}, PageRequest{Page: 1, Limit: DefaultPageLimit}, 0},
		{PageRequest{Page: 3, Limit: 20}, PageRequest{Page: 3, Limit: 20}, 40},
		{PageRequest{Page: -2, Limit: 500}, PageRequest{Page: 1, Limit: MaxPageLimit}, 0},
	}

	for _, tt := range tests {
		got := tt.in.Normalize()
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantOffset, got.Offset())
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}
