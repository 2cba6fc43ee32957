package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*Cache{nil, NewCache(nil)} {
		assert.False(t, c.Enabled())
		require.NoError(t, c.Set(ctx, "k", []string{"v"}, time.Minute))
		var out []string
		found, err := c.Get(ctx, "k", &out)
		require.NoError(t, err)
		assert.False(t, found)
		require.NoError(t, c.Delete(ctx, "k"))
	}
}
