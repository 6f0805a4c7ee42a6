package cache

import (
	"context"
	"testing"

	"yamdb/internal/microservices/http-api/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleCache_NilIsNoop(t *testing.T) {
	ctx := context.Background()
	var c *TitleCache

	view, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, view)

	assert.NoError(t, c.Set(ctx, &dto.TitleResponse{ID: 1}))
	assert.NoError(t, c.Invalidate(ctx, 1))
	assert.NoError(t, c.InvalidateAll(ctx))

	empty := NewTitleCache(nil, 0)
	view, err = empty.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, view)
}

func TestTitleKey(t *testing.T) {
	assert.Equal(t, "title:42", titleKey(42))
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient("not a url")
	assert.ErrorContains(t, err, "invalid REDIS_URL")
}
