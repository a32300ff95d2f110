package dto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/inventory-ledger/internal/application/dto"
)

func TestPageRequest_Normalize(t *testing.T) {
	cases := []struct {
		in   dto.PageRequest
		want dto.PageRequest
	}{
		{dto.PageRequest{}, dto.PageRequest{Limit: 20}},
		{dto.PageRequest{Limit: 500, Offset: 10}, dto.PageRequest{Limit: 100, Offset: 10}},
		{dto.PageRequest{Limit: 5, Offset: -3}, dto.PageRequest{Limit: 5}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.in.Normalize())
	}
	assert.Equal(t, dto.PageResponse{Limit: 5, Offset: 2}, dto.PageRequest{Limit: 5, Offset: 2}.Response())
}
