package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pontis/internal/config"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "d1", "scene.json", "application/json", []byte(`{}`)))
	require.NoError(t, s.Put(ctx, "d1", "/drawings/elevation.svg", "image/svg+xml", []byte("<svg/>")))
	require.NoError(t, s.Put(ctx, "d2", "scene.json", "application/json", []byte(`[]`)))

	got, err := s.Get(ctx, "d1", "drawings/elevation.svg")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(got))

	_, err = s.Get(ctx, "d1", "report.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	names, err := s.List(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"drawings/elevation.svg", "scene.json"}, names)

	url, err := s.URL(ctx, "d1", "scene.json")
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestMemoryStoreCopiesContent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Put(ctx, "d", "x", "", buf))
	buf[0] = 'z'
	got, err := s.Get(ctx, "d", "x")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestObjectKey(t *testing.T) {
	key, err := objectKey(" d1/ ", "/scene.json")
	require.NoError(t, err)
	assert.Equal(t, "d1/scene.json", key)

	for _, c := range [][2]string{{"", "a"}, {"d", ""}, {"d", "../etc/passwd"}} {
		_, err := objectKey(c[0], c[1])
		assert.Error(t, err, c)
	}
}

func TestNewS3StoreValidatesConfig(t *testing.T) {
	_, err := NewS3Store(config.ArtifactConfig{})
	assert.Error(t, err)
	_, err = NewS3Store(config.ArtifactConfig{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)

	s, err := NewS3Store(config.ArtifactConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
}
