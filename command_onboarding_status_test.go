package clarix

import (
	"context"
	"encoding/json"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingStatus(t *testing.T) {
	userUUID := uuid.New()

	t.Run("no row means not started", func(t *testing.T) {
		repo := newStubRepoManager()
		handler := NewOnboardingStatusHandler(repo)

		_, err := handler.Execute(context.Background(), OnboardingStatusMessage{UserUUID: userUUID})

		var rich *goerrors.Error
		require.True(t, goerrors.As(err, &rich))
		assert.Equal(t, goerrors.CodeNotFound, rich.Code)
		assert.Equal(t, "onboarding not started", rich.Message)
	})

	t.Run("null completed reads as false", func(t *testing.T) {
		repo := newStubRepoManager()
		repo.onboardings.record = &Onboarding{UserUUID: userUUID}
		handler := NewOnboardingStatusHandler(repo)

		resp, err := handler.Execute(context.Background(), OnboardingStatusMessage{UserUUID: userUUID})

		require.NoError(t, err)
		assert.False(t, resp.Completed)
		assert.Nil(t, resp.Income)
		assert.Nil(t, resp.NextGoal)
	})

	t.Run("completed row maps to a flat snapshot", func(t *testing.T) {
		completed := true
		income := 4500.0
		step := 5

		repo := newStubRepoManager()
		repo.onboardings.record = &Onboarding{
			ID:                 42,
			UserUUID:           userUUID,
			Income:             &income,
			SelectedCategories: []string{"food", "transport"},
			SuggestedLimits:    map[string]float64{"food": 900},
			NextGoal:           map[string]any{"name": "reserva"},
			CurrentStep:        &step,
			Completed:          &completed,
		}
		handler := NewOnboardingStatusHandler(repo)

		resp, err := handler.Execute(context.Background(), OnboardingStatusMessage{UserUUID: userUUID})

		require.NoError(t, err)
		assert.True(t, resp.Completed)
		require.NotNil(t, resp.Income)
		assert.Equal(t, 4500.0, *resp.Income)
		assert.Equal(t, []string{"food", "transport"}, resp.SelectedCategories)
		assert.Equal(t, map[string]float64{"food": 900}, resp.SuggestedLimits)
		assert.Equal(t, map[string]any{"name": "reserva"}, resp.NextGoal)
		require.NotNil(t, resp.CurrentStep)
		assert.Equal(t, 5, *resp.CurrentStep)
	})

	t.Run("row internals never leak", func(t *testing.T) {
		repo := newStubRepoManager()
		repo.onboardings.record = &Onboarding{ID: 42, UserUUID: userUUID}
		handler := NewOnboardingStatusHandler(repo)

		resp, err := handler.Execute(context.Background(), OnboardingStatusMessage{UserUUID: userUUID})
		require.NoError(t, err)

		encoded, err := json.Marshal(resp)
		require.NoError(t, err)

		body := map[string]any{}
		require.NoError(t, json.Unmarshal(encoded, &body))
		assert.NotContains(t, body, "id")
		assert.NotContains(t, body, "user_uuid")
		assert.NotContains(t, body, "created_at")
		assert.NotContains(t, body, "updated_at")
		assert.Contains(t, body, "completed")
	})
}
