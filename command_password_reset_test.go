package clarix

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializePasswordReset(t *testing.T) {
	t.Run("unknown email rejected", func(t *testing.T) {
		repo := newStubRepoManager()
		backend := newStubBackend()
		handler := NewInitializePasswordResetHandler(repo, backend, nil)

		_, err := handler.Execute(context.Background(), InitializePasswordResetMessage{
			Email: "nobody@example.com",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeNotFound, rich.Code)
		assert.Empty(t, backend.recoveryEmails)
	})

	t.Run("sends recovery email", func(t *testing.T) {
		repo := newStubRepoManager()
		repo.users.emailExists = true
		backend := newStubBackend()
		handler := NewInitializePasswordResetHandler(repo, backend, nil)

		resp, err := handler.Execute(context.Background(), InitializePasswordResetMessage{
			Email: "maria@example.com",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Message)
		assert.Equal(t, []string{"maria@example.com"}, backend.recoveryEmails)
	})

	t.Run("backend rate limit surfaces as throttled", func(t *testing.T) {
		repo := newStubRepoManager()
		repo.users.emailExists = true
		backend := newStubBackend()
		backend.recoveryErr = errors.New("For security purposes, you can only request this after 60 seconds")
		handler := NewInitializePasswordResetHandler(repo, backend, nil)

		_, err := handler.Execute(context.Background(), InitializePasswordResetMessage{
			Email: "maria@example.com",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, 429, rich.Code)
	})

	t.Run("backend failure surfaces as internal", func(t *testing.T) {
		repo := newStubRepoManager()
		repo.users.emailExists = true
		backend := newStubBackend()
		backend.recoveryErr = errors.New("smtp unavailable")
		handler := NewInitializePasswordResetHandler(repo, backend, nil)

		_, err := handler.Execute(context.Background(), InitializePasswordResetMessage{
			Email: "maria@example.com",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeInternal, rich.Code)
	})
}

func TestFinalizePasswordReset(t *testing.T) {
	identityID := uuid.New().String()

	t.Run("short password rejected", func(t *testing.T) {
		backend := newStubBackend()
		handler := NewFinalizePasswordResetHandler(backend, nil)

		_, err := handler.Execute(context.Background(), FinalizePasswordResetMessage{
			Token:       "recovery-token",
			NewPassword: "12345",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, 422, rich.Code)
		assert.Empty(t, backend.updatedPasswords)
	})

	t.Run("invalid recovery token rejected", func(t *testing.T) {
		backend := newStubBackend()
		backend.verifyErr = errors.New("Token has expired or is invalid")
		handler := NewFinalizePasswordResetHandler(backend, nil)

		_, err := handler.Execute(context.Background(), FinalizePasswordResetMessage{
			Token:       "stale-token",
			NewPassword: "123456",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeBadRequest, rich.Code)
	})

	t.Run("updates the password", func(t *testing.T) {
		backend := newStubBackend()
		backend.verified = &Identity{ID: identityID, Email: "maria@example.com"}
		handler := NewFinalizePasswordResetHandler(backend, nil)

		resp, err := handler.Execute(context.Background(), FinalizePasswordResetMessage{
			Token:       "recovery-token",
			NewPassword: "new-password",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, resp.Message)
		assert.Equal(t, "new-password", backend.updatedPasswords[identityID])
	})

	t.Run("update failure surfaces as internal", func(t *testing.T) {
		backend := newStubBackend()
		backend.verified = &Identity{ID: identityID}
		backend.updateErr = errors.New("admin api down")
		handler := NewFinalizePasswordResetHandler(backend, nil)

		_, err := handler.Execute(context.Background(), FinalizePasswordResetMessage{
			Token:       "recovery-token",
			NewPassword: "new-password",
		})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeInternal, rich.Code)
	})
}
