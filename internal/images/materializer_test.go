package images

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafadias/shopee-scraper/internal/httpclient"
	"github.com/rafadias/shopee-scraper/internal/models"
)

func TestResolveLocator(t *testing.T) {
	tests := []struct {
		name     string
		locator  string
		expected string
	}{
		{"Absolute URL", "https://cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"Plain HTTP", "http://cdn.example.com/a.jpg", "http://cdn.example.com/a.jpg"},
		{"Protocol relative", "//cdn.example.com/a.jpg", "https://cdn.example.com/a.jpg"},
		{"Bare identifier", "br-11134207-abc", "https://cf.shopee.com.br/file/br-11134207-abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveLocator(tt.locator))
		})
	}
}

func TestMaterializePreservesOrderAndSurvivesFailures(t *testing.T) {
	payload := bytes.Repeat([]byte{0xFF}, 5000)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.jpg":
			w.Write(payload)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	m := NewMaterializer(httpclient.New(nil), Options{DestDir: dir, Concurrency: 2})

	refs := []models.ImageRef{
		{SourceLocator: server.URL + "/good.jpg", IsAuthoritative: true},
		{SourceLocator: server.URL + "/missing.jpg", IsAuthoritative: true},
	}

	out := m.Materialize(context.Background(), "22593522326", refs)

	require.Len(t, out, 2)
	assert.Equal(t, server.URL+"/good.jpg", out[0].ResolvedURL)
	assert.NotEmpty(t, out[0].LocalPath)
	assert.Empty(t, out[1].LocalPath, "failed fetch must leave local path absent")

	written, err := os.ReadFile(out[0].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, payload, written)

	// Input refs are not mutated.
	assert.Empty(t, refs[0].LocalPath)
}

func TestMaterializeRejectsTinyBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("nope"))
	}))
	defer server.Close()

	m := NewMaterializer(httpclient.New(nil), Options{DestDir: t.TempDir()})
	out := m.Materialize(context.Background(), "1", []models.ImageRef{{SourceLocator: server.URL + "/a.jpg"}})

	require.Len(t, out, 1)
	assert.Empty(t, out[0].LocalPath)
}

func TestMaterializeEmpty(t *testing.T) {
	m := NewMaterializer(httpclient.New(nil), Options{DestDir: t.TempDir()})
	assert.Empty(t, m.Materialize(context.Background(), "1", nil))
}
