package ocr

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	var gotAuth, gotFile string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/extract", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		gotFile = header.Filename
		gotBody, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"holdings": []map[string]any{
				{"nome_ou_codigo": "PETR4", "valor": 1500.5, "tipo": "Ação BR"},
				{"nome_ou_codigo": "HGLG11", "quantidade": 10, "preco": 160},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL + "/", APIKey: "secret"}, zerolog.Nop())

	holdings, err := client.Extract(context.Background(), "print.png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "print.png", gotFile)
	assert.Equal(t, []byte("png-bytes"), gotBody)

	require.Len(t, holdings, 2)
	assert.Equal(t, "PETR4", holdings[0].NomeOuCodigo)
	require.NotNil(t, holdings[0].Valor)
	assert.Equal(t, 1500.5, *holdings[0].Valor)
	assert.Equal(t, "Ação BR", holdings[0].Tipo)

	v, ok := holdings[1].ResolveValue()
	assert.True(t, ok)
	assert.Equal(t, 1600.0, v)
}

func TestExtract_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cannot read image", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, zerolog.Nop())

	_, err := client.Extract(context.Background(), "blurry.jpg", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "cannot read image")
}

func TestExtract_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL}, zerolog.Nop())

	holdings, err := client.Extract(context.Background(), "a.png", []byte("x"))
	require.NoError(t, err)
	assert.NotNil(t, holdings)
	assert.Empty(t, holdings)
}

func TestExtract_NotConfigured(t *testing.T) {
	client := NewClient(Config{}, zerolog.Nop())

	_, err := client.Extract(context.Background(), "a.png", []byte("x"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestExtract_EmptyImage(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"}, zerolog.Nop())

	_, err := client.Extract(context.Background(), "a.png", nil)
	assert.Error(t, err)
}

func TestExtract_RateLimitHonorsContext(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"holdings":[]}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, RatePerMinute: 1}, zerolog.Nop())

	_, err := client.Extract(context.Background(), "a.png", []byte("x"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Extract(ctx, "b.png", []byte("x"))
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
