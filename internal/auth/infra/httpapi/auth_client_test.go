package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwikikusuma/quickcart/internal/auth/domain"
	"github.com/dwikikusuma/quickcart/pkg/apiclient"
)

func newAuthClient(t *testing.T, h http.HandlerFunc) *AuthClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	api, err := apiclient.New(srv.URL + "/api")
	require.NoError(t, err)
	return NewAuthClient(api)
}

func TestLoginPostsCredentials(t *testing.T) {
	client := newAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var creds domain.Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, domain.Credentials{Username: "alice", Password: "pw"}, creds)
		_, _ = io.WriteString(w, `{"username":"alice","message":"Login successful"}`)
	})

	res, err := client.Login(context.Background(), domain.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.Username)
}

func TestRegisterValidationError(t *testing.T) {
	client := newAuthClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Username is already taken"}`)
	})

	_, err := client.Register(context.Background(), domain.Registration{Username: "alice", Email: "a@example.com", Password: "pw"})
	assert.True(t, errors.Is(err, apiclient.ErrValidation))
	assert.Equal(t, "Username is already taken", apiclient.MessageOf(err))
}
