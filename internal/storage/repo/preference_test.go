package repo_test

import (
	"context"
	"testing"

	"siteshell/internal/storage/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceRepo_PutGetRemove(t *testing.T) {
	r := repo.NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	_, ok, err := r.GetString(ctx, "CookiesPrefs", "CookiesKey")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.PutString(ctx, "CookiesPrefs", "CookiesKey", "a=1; b=2"))
	v, ok, err := r.GetString(ctx, "CookiesPrefs", "CookiesKey")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a=1; b=2", v)

	// 覆盖写入
	require.NoError(t, r.PutString(ctx, "CookiesPrefs", "CookiesKey", "c=3"))
	v, _, _ = r.GetString(ctx, "CookiesPrefs", "CookiesKey")
	assert.Equal(t, "c=3", v)

	require.NoError(t, r.Remove(ctx, "CookiesPrefs", "CookiesKey"))
	_, ok, err = r.GetString(ctx, "CookiesPrefs", "CookiesKey")
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除不存在的键不报错
	require.NoError(t, r.Remove(ctx, "CookiesPrefs", "missing"))
}

func TestPreferenceRepo_GetAllScopedByPrefs(t *testing.T) {
	r := repo.NewPreferenceRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, r.PutString(ctx, "A", "k1", "v1"))
	require.NoError(t, r.PutString(ctx, "A", "k2", "v2"))
	require.NoError(t, r.PutString(ctx, "B", "k1", "other"))

	all, err := r.GetAll(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, all)
}
