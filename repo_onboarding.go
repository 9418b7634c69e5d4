package clarix

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Onboardings reads the onboarding progress rows written by the mobile app.
type Onboardings interface {
	repository.Repository[*Onboarding]

	GetByUserUUID(ctx context.Context, userUUID uuid.UUID) (*Onboarding, error)
	GetByUserUUIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (*Onboarding, error)

	IsCompleted(ctx context.Context, userUUID uuid.UUID) (bool, error)
	IsCompletedTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (bool, error)
}

type onboardings struct {
	repository.Repository[*Onboarding]
	db *bun.DB
}

var _ Onboardings = (*onboardings)(nil)

func NewOnboardingsRepository(db *bun.DB) Onboardings {
	repo := repository.NewRepository[*Onboarding](db, repository.ModelHandlers[*Onboarding]{
		NewRecord: func() *Onboarding { return &Onboarding{} },
		GetID: func(o *Onboarding) uuid.UUID {
			if o == nil {
				return uuid.Nil
			}
			return o.UserUUID
		},
		SetID: func(o *Onboarding, id uuid.UUID) {
			if o != nil {
				o.UserUUID = id
			}
		},
		GetIdentifier: func() string {
			return "user_uuid"
		},
	})

	return &onboardings{
		Repository: repo,
		db:         db,
	}
}

func (a *onboardings) GetByUserUUID(ctx context.Context, userUUID uuid.UUID) (*Onboarding, error) {
	return a.GetByUserUUIDTx(ctx, a.db, userUUID)
}

func (a *onboardings) GetByUserUUIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (*Onboarding, error) {
	record := &Onboarding{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_uuid = ?", userUUID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_uuid": userUUID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *onboardings) IsCompleted(ctx context.Context, userUUID uuid.UUID) (bool, error) {
	return a.IsCompletedTx(ctx, a.db, userUUID)
}

func (a *onboardings) IsCompletedTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (bool, error) {
	return tx.NewSelect().
		Model((*Onboarding)(nil)).
		Where("?TableAlias.user_uuid = ?", userUUID).
		Where("?TableAlias.completed IS TRUE").
		Exists(ctx)
}
