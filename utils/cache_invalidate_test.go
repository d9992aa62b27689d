package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeMarathonLists(t *testing.T) {
	mr, rdb := newMiniredis(t)
	require.NoError(t, mr.Set("cache:marathons:section", "x"))
	require.NoError(t, mr.Set("cache:marathons:upcoming:abc", "x"))
	require.NoError(t, mr.Set("cache:other:keep", "x"))

	inv := NewCacheInvalidator(rdb)
	require.NoError(t, inv.PurgeMarathonLists(context.Background()))

	assert.False(t, mr.Exists("cache:marathons:section"))
	assert.False(t, mr.Exists("cache:marathons:upcoming:abc"))
	assert.True(t, mr.Exists("cache:other:keep"))
}

func TestPurgeMarathonLists_NilInvalidator(t *testing.T) {
	var inv *CacheInvalidator
	assert.NoError(t, inv.PurgeMarathonLists(context.Background()))
}
