package clarix

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/goliatone/go-repository-bun"
)

type OnboardingStatusMessage struct {
	UserUUID uuid.UUID `json:"-"`
}

func (m OnboardingStatusMessage) Type() string { return "onboarding.status" }

// OnboardingStatusResponse is the flat snapshot served to the client. Row
// internals (ids, timestamps) stay out; nullable columns pass through as
// null except completed, which reads as false when NULL.
type OnboardingStatusResponse struct {
	Income              *float64           `json:"income"`
	MonthlyCost         *float64           `json:"monthly_cost"`
	SelectedCategories  []string           `json:"selected_categories"`
	SuggestedLimits     map[string]float64 `json:"suggested_limits"`
	HasEmergencyFund    *bool              `json:"has_emergency_fund"`
	EmergencyFundAmount *float64           `json:"emergency_fund_amount"`
	NextGoal            map[string]any     `json:"next_goal"`
	Commitment          map[string]any     `json:"commitment"`
	CurrentStep         *int               `json:"current_step"`
	Completed           bool               `json:"completed"`
}

// OnboardingStatusHandler reads the caller's onboarding progress. The row is
// written by the mobile app through another service; absence means the flow
// was never started.
type OnboardingStatusHandler struct {
	repo RepositoryManager
}

func NewOnboardingStatusHandler(repo RepositoryManager) *OnboardingStatusHandler {
	return &OnboardingStatusHandler{repo: repo}
}

func (h *OnboardingStatusHandler) Execute(ctx context.Context, msg OnboardingStatusMessage) (*OnboardingStatusResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return h.execute(ctx, msg)
	}
}

func (h *OnboardingStatusHandler) execute(ctx context.Context, msg OnboardingStatusMessage) (*OnboardingStatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record, err := h.repo.Onboardings().GetByUserUUID(ctx, msg.UserUUID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrOnboardingNotStarted.Clone()
		}
		return nil, err
	}

	return &OnboardingStatusResponse{
		Income:              record.Income,
		MonthlyCost:         record.MonthlyCost,
		SelectedCategories:  record.SelectedCategories,
		SuggestedLimits:     record.SuggestedLimits,
		HasEmergencyFund:    record.HasEmergencyFund,
		EmergencyFundAmount: record.EmergencyFundAmount,
		NextGoal:            record.NextGoal,
		Commitment:          record.Commitment,
		CurrentStep:         record.CurrentStep,
		Completed:           record.Completed != nil && *record.Completed,
	}, nil
}
