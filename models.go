package clarix

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Fixed defaults applied to every new profile row. Plan, recurrence and
// status are referenced by id; the lookup tables live in the managed
// database and are not owned by this service.
const (
	// DefaultPlanID is the Essential plan.
	DefaultPlanID = 1
	// DefaultRecurrenceID is monthly billing.
	DefaultRecurrenceID = 3
	// DefaultStatusID is the trial status.
	DefaultStatusID = 1
)

// User is the profile row backing an auth identity. The uuid column is the
// join key to the external identity and is immutable after creation.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UUID          uuid.UUID  `bun:"uuid,notnull,unique,type:uuid" json:"uuid,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone         string     `bun:"phone" json:"phone,omitempty"`
	TaxID         string     `bun:"tax_id" json:"tax_id,omitempty"`
	ActiveBot     bool       `bun:"active_bot" json:"active_bot,omitempty"`
	CustomerID    string     `bun:"customer_id" json:"customer_id,omitempty"`
	PlanID        int        `bun:"plan_id,notnull" json:"plan_id,omitempty"`
	RecurrenceID  int        `bun:"recurrence_id,notnull" json:"recurrence_id,omitempty"`
	StatusID      int        `bun:"user_status_id,notnull" json:"user_status_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Onboarding is the per-user onboarding progress row. It is created and
// mutated by the onboarding update flow; this service only reads it.
type Onboarding struct {
	bun.BaseModel       `bun:"table:onboarding,alias:onb"`
	ID                  int64              `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserUUID            uuid.UUID          `bun:"user_uuid,notnull,unique,type:uuid" json:"user_uuid,omitempty"`
	Income              *float64           `bun:"income" json:"income,omitempty"`
	MonthlyCost         *float64           `bun:"monthly_cost" json:"monthly_cost,omitempty"`
	SelectedCategories  []string           `bun:"selected_categories" json:"selected_categories,omitempty"`
	SuggestedLimits     map[string]float64 `bun:"suggested_limits" json:"suggested_limits,omitempty"`
	HasEmergencyFund    *bool              `bun:"has_emergency_fund" json:"has_emergency_fund,omitempty"`
	EmergencyFundAmount *float64           `bun:"emergency_fund_amount" json:"emergency_fund_amount,omitempty"`
	NextGoal            map[string]any     `bun:"next_goal" json:"next_goal,omitempty"`
	Commitment          map[string]any     `bun:"commitment" json:"commitment,omitempty"`
	CurrentStep         *int               `bun:"current_step" json:"current_step,omitempty"`
	Completed           *bool              `bun:"completed" json:"completed,omitempty"`
	CreatedAt           *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.PlanID == 0 {
		record.PlanID = DefaultPlanID
	}
	if record.RecurrenceID == 0 {
		record.RecurrenceID = DefaultRecurrenceID
	}
	if record.StatusID == 0 {
		record.StatusID = DefaultStatusID
	}
}
