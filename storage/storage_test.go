package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"plain", "https://cdn.example.com", "saves/a.json", "https://cdn.example.com/saves/a.json"},
		{"base with path", "https://cdn.example.com/archive", "saves/a.json", "https://cdn.example.com/archive/saves/a.json"},
		{"leading slash", "https://cdn.example.com/", "/saves/a.json", "https://cdn.example.com/saves/a.json"},
		{"no base", "", "saves/a.json", ""},
		{"no key", "https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.base, tt.key))
		})
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore("https://archive.test")
	ctx := context.Background()

	res, err := store.Upload(ctx, "saves/1/seasons/2.json", "application/json", strings.NewReader(`{"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, "https://archive.test/saves/1/seasons/2.json", res.Location)
	assert.NotEmpty(t, res.ETag)

	data, ok := store.Object("saves/1/seasons/2.json")
	require.True(t, ok)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, []string{"saves/1/seasons/2.json"}, store.Keys())

	require.NoError(t, store.Delete(ctx, "saves/1/seasons/2.json"))
	assert.Empty(t, store.Keys())
}

func TestNewS3ArchiveValidatesConfig(t *testing.T) {
	_, err := NewS3Archive(context.Background(), S3Config{Bucket: "b"})
	assert.Error(t, err)

	archive, err := NewS3Archive(context.Background(), S3Config{
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "seasons",
		Prefix:          "/matchday/",
		PublicBaseURL:   "https://cdn.example.com",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/matchday/saves/a.json", archive.GetPublicURL("saves/a.json"))
}

func TestSeasonArchiveKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a52-3c1e-4c4e-9a59-2f3f3c1d0b11")
	assert.Equal(t, "saves/6f1c2a52-3c1e-4c4e-9a59-2f3f3c1d0b11/seasons/7.json", SeasonArchiveKey(id, 7))
}
