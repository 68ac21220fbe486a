package cookiejar_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"siteshell/internal/cookiejar"
	"siteshell/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "https://tandavcreation.com/"

// fakeStore 内存中的 Cookie 存储
type fakeStore struct {
	mu       sync.Mutex
	header   string
	set      []string
	removed  int
	flushed  int
	removeFn func() error
}

func (s *fakeStore) Cookie(ctx context.Context, url string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header, s.header != "", nil
}

func (s *fakeStore) SetCookie(ctx context.Context, url, fragment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = append(s.set, fragment)
	return nil
}

func (s *fakeStore) RemoveAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed++
	s.header = ""
	if s.removeFn != nil {
		return s.removeFn()
	}
	return nil
}

func (s *fakeStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushed++
	return nil
}

// fakePrefs 内存中的键值存储
type fakePrefs struct {
	mu sync.Mutex
	m  map[string]string
}

func newFakePrefs() *fakePrefs { return &fakePrefs{m: map[string]string{}} }

func (p *fakePrefs) GetString(ctx context.Context, prefs, key string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[prefs+"/"+key]
	return v, ok, nil
}

func (p *fakePrefs) PutString(ctx context.Context, prefs, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[prefs+"/"+key] = value
	return nil
}

func (p *fakePrefs) Remove(ctx context.Context, prefs, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, prefs+"/"+key)
	return nil
}

func newJar(store *fakeStore, prefs *fakePrefs) *cookiejar.Jar {
	return cookiejar.New(store, prefs, cookiejar.Options{
		Root:  root,
		Prefs: "CookiesPrefs",
		Key:   "CookiesKey",
	}, logger.NewNop())
}

func TestJar_SaveThenRestore(t *testing.T) {
	ctx := context.Background()
	prefs := newFakePrefs()

	src := &fakeStore{header: "a=1; b=2"}
	require.NoError(t, newJar(src, prefs).Save(ctx))
	assert.Equal(t, "a=1; b=2", prefs.m["CookiesPrefs/CookiesKey"])

	dst := &fakeStore{}
	require.NoError(t, newJar(dst, prefs).Restore(ctx))
	assert.Equal(t, []string{"a=1", "b=2"}, dst.set)
	assert.Equal(t, 1, dst.flushed)
}

func TestJar_SaveWithoutCookiesKeepsStored(t *testing.T) {
	ctx := context.Background()
	prefs := newFakePrefs()
	prefs.m["CookiesPrefs/CookiesKey"] = "old=1"

	require.NoError(t, newJar(&fakeStore{}, prefs).Save(ctx))
	assert.Equal(t, "old=1", prefs.m["CookiesPrefs/CookiesKey"])
}

func TestJar_RestoreWithoutStoredIsNoop(t *testing.T) {
	store := &fakeStore{}
	require.NoError(t, newJar(store, newFakePrefs()).Restore(context.Background()))
	assert.Empty(t, store.set)
	assert.Zero(t, store.flushed)
}

func TestJar_ClearRemovesBrowserCookiesOnly(t *testing.T) {
	prefs := newFakePrefs()
	prefs.m["CookiesPrefs/CookiesKey"] = "a=1"
	store := &fakeStore{header: "a=1"}

	done := make(chan error, 1)
	newJar(store, prefs).Clear(context.Background(), func(err error) { done <- err })

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("清空回调未触发")
	}

	store.mu.Lock()
	assert.Equal(t, 1, store.removed)
	store.mu.Unlock()
	// 持久化条目留给调用方删除
	_, ok, _ := prefs.GetString(context.Background(), "CookiesPrefs", "CookiesKey")
	assert.True(t, ok)
}

func TestJar_ClearReportsStoreError(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeStore{removeFn: func() error { return boom }}

	done := make(chan error, 1)
	newJar(store, newFakePrefs()).Clear(context.Background(), func(err error) { done <- err })

	require.ErrorIs(t, <-done, boom)
}

func TestJar_Forget(t *testing.T) {
	ctx := context.Background()
	prefs := newFakePrefs()
	prefs.m["CookiesPrefs/CookiesKey"] = "a=1"
	jar := newJar(&fakeStore{}, prefs)

	require.NoError(t, jar.Forget(ctx))
	_, ok, _ := prefs.GetString(ctx, "CookiesPrefs", "CookiesKey")
	assert.False(t, ok)

	require.NoError(t, jar.Forget(ctx), "重复删除不报错")
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"a=1", "b=2"}, cookiejar.Split(" a=1 ;; b=2; "))
	assert.Empty(t, cookiejar.Split(""))
}
