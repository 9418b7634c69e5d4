package clarix

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users persists application profiles keyed by the identity backend's user
// UUID.
type Users interface {
	repository.Repository[*User]

	EmailExists(ctx context.Context, email string) (bool, error)
	EmailExistsTx(ctx context.Context, tx bun.IDB, email string) (bool, error)

	GetByUUID(ctx context.Context, userUUID uuid.UUID) (*User, error)
	GetByUUIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	UpdateCustomerID(ctx context.Context, userUUID uuid.UUID, customerID string) error
	UpdateCustomerIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID, customerID string) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.UUID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.UUID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) EmailExists(ctx context.Context, email string) (bool, error) {
	return a.EmailExistsTx(ctx, a.db, email)
}

func (a *users) EmailExistsTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *users) GetByUUID(ctx context.Context, userUUID uuid.UUID) (*User, error) {
	return a.GetByUUIDTx(ctx, a.db, userUUID)
}

func (a *users) GetByUUIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.uuid = ?", userUUID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"uuid": userUUID.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) UpdateCustomerID(ctx context.Context, userUUID uuid.UUID, customerID string) error {
	return a.UpdateCustomerIDTx(ctx, a.db, userUUID, customerID)
}

func (a *users) UpdateCustomerIDTx(ctx context.Context, tx bun.IDB, userUUID uuid.UUID, customerID string) error {
	res, err := tx.NewUpdate().
		Model((*User)(nil)).
		Set("customer_id = ?", customerID).
		Where("?TableAlias.uuid = ?", userUUID).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"uuid": userUUID.String(),
			})
	}

	return nil
}
