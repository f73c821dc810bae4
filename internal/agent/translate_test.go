package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaidhya-backend/internal/logger"
)

func testLogger() logger.Logger {
	return logger.New(logger.Config{Level: "debug", Output: io.Discard})
}

func TestNormalizeLanguageCode(t *testing.T) {
	assert.Equal(t, "en-IN", NormalizeLanguageCode(""))
	assert.Equal(t, "hi-IN", NormalizeLanguageCode("hi"))
	assert.Equal(t, "ta-IN", NormalizeLanguageCode("ta-IN"))
}

func TestSarvamTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/translate", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("api-subscription-key"))

		var req translateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "en-IN", req.SourceLanguageCode)
		assert.Equal(t, "hi-IN", req.TargetLanguageCode)

		json.NewEncoder(w).Encode(translateResponse{TranslatedText: "नमस्ते"})
	}))
	defer srv.Close()

	c := NewSarvamClient("test-key", srv.URL, testLogger())
	got := c.Translate(context.Background(), "hello", "en-IN", "hi")
	assert.Equal(t, "नमस्ते", got)
}

func TestSarvamTranslateFailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewSarvamClient("test-key", srv.URL, testLogger())
	got := c.Translate(context.Background(), "hello", "en-IN", "hi-IN")
	assert.Equal(t, "hello", got)
}

func TestSarvamTranslateSameLanguageSkipsCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewSarvamClient("test-key", srv.URL, testLogger())
	got := c.Translate(context.Background(), "hello", "en", "en-IN")
	assert.Equal(t, "hello", got)
	assert.False(t, called)
}

func TestSarvamTranslateEmptyText(t *testing.T) {
	c := NewSarvamClient("test-key", "http://127.0.0.1:1", testLogger())
	assert.Equal(t, "   ", c.Translate(context.Background(), "   ", "en-IN", "hi-IN"))
}
