package clarix

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshSession(t *testing.T) {
	t.Run("missing token rejected", func(t *testing.T) {
		handler := NewRefreshSessionHandler(newStubBackend(), nil)

		_, err := handler.Execute(context.Background(), RefreshSessionMessage{})
		assert.Error(t, err)
	})

	t.Run("backend rejection maps to unauthorized", func(t *testing.T) {
		backend := newStubBackend()
		backend.refreshErr = errors.New("Invalid Refresh Token: Already Used")
		handler := NewRefreshSessionHandler(backend, nil)

		_, err := handler.Execute(context.Background(), RefreshSessionMessage{
			RefreshToken: "stale-token",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeUnauthorized, rich.Code)
	})

	t.Run("empty session maps to unauthorized", func(t *testing.T) {
		backend := newStubBackend()
		backend.refreshed = nil
		handler := NewRefreshSessionHandler(backend, nil)

		_, err := handler.Execute(context.Background(), RefreshSessionMessage{
			RefreshToken: "stale-token",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeUnauthorized, rich.Code)
	})

	t.Run("rotates tokens", func(t *testing.T) {
		backend := newStubBackend()
		backend.refreshed = &Session{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    7200,
		}
		handler := NewRefreshSessionHandler(backend, nil)

		resp, err := handler.Execute(context.Background(), RefreshSessionMessage{
			RefreshToken: "old-refresh",
		})

		require.NoError(t, err)
		assert.Equal(t, "new-access", resp.AccessToken)
		assert.Equal(t, "new-refresh", resp.RefreshToken)
		assert.Equal(t, 7200, resp.ExpiresIn)
	})

	t.Run("defaults expires_in", func(t *testing.T) {
		backend := newStubBackend()
		backend.refreshed = &Session{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
		}
		handler := NewRefreshSessionHandler(backend, nil)

		resp, err := handler.Execute(context.Background(), RefreshSessionMessage{
			RefreshToken: "old-refresh",
		})

		require.NoError(t, err)
		assert.Equal(t, DefaultSessionTTL, resp.ExpiresIn)
	})
}

func TestLogout(t *testing.T) {
	t.Run("revokes the session", func(t *testing.T) {
		backend := newStubBackend()
		handler := NewLogoutHandler(backend, nil)

		resp, err := handler.Execute(context.Background(), LogoutMessage{
			AccessToken: "access-token",
		})

		require.NoError(t, err)
		assert.Equal(t, "logout successful", resp.Message)
		assert.Equal(t, []string{"access-token"}, backend.signOutTokens)
	})

	t.Run("already invalidated token maps to unauthorized", func(t *testing.T) {
		backend := newStubBackend()
		backend.signOutErr = errors.New("session not found")
		handler := NewLogoutHandler(backend, nil)

		_, err := handler.Execute(context.Background(), LogoutMessage{
			AccessToken: "access-token",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeUnauthorized, rich.Code)
		assert.Equal(t, "invalid token", rich.Message)
	})
}
