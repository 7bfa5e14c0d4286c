package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyrag/internal/domain"
)

const keyEnv = "STUDYRAG_TEST_KEY"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv(keyEnv, "test-key")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: keyEnv})
	require.NoError(t, err)
	return c
}

func TestNewClientMissingCredential(t *testing.T) {
	t.Setenv(keyEnv, "")
	_, err := NewClient(Config{APIKeyEnv: keyEnv})
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be helpful", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`)
	})

	out, err := c.Complete(context.Background(), "be helpful", "what is X?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", out)
}

func TestCompleteRemoteRejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"requests"}}`)
	})

	_, err := c.Complete(context.Background(), "s", "u")
	require.ErrorIs(t, err, domain.ErrRemoteRejected)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCompleteMalformedResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	})

	_, err := c.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
