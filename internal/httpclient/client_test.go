package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRotatesIdentities(t *testing.T) {
	var agents []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := New(&Options{
		Identities: []Identity{
			{UserAgent: "agent-a"},
			{UserAgent: "agent-b"},
		},
	})

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := client.Get(ctx, server.URL, nil, nil)
		require.NoError(t, err)
	}

	require.Len(t, agents, 4)
	assert.NotEqual(t, agents[0], agents[1])
	assert.Equal(t, agents[0], agents[2])
	assert.Equal(t, agents[1], agents[3])
}

func TestGetAppliesParamsAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "22593522326", r.URL.Query().Get("itemid"))
		assert.Equal(t, "1167885424", r.URL.Query().Get("shopid"))
		assert.Equal(t, "https://shopee.com.br/p", r.Header.Get("Referer"))
		w.Write([]byte(`{"error":0}`))
	}))
	defer server.Close()

	client := New(nil)
	params := url.Values{}
	params.Set("itemid", "22593522326")
	params.Set("shopid", "1167885424")

	resp, err := client.Get(context.Background(), server.URL, params, map[string]string{
		"Referer": "https://shopee.com.br/p",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Error int `json:"error"`
	}
	require.NoError(t, resp.JSON(&body))
	assert.Equal(t, 0, body.Error)
}

func TestGetHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL, nil, nil)
	assert.Error(t, err)
}

func TestJSONDecodeError(t *testing.T) {
	resp := &Response{StatusCode: 200, Body: []byte("not json")}
	var v map[string]any
	assert.Error(t, resp.JSON(&v))
}
