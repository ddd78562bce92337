package zeen

import (
	"context"
	"database/sql"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the account store
type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)

	FindWithRole(ctx context.Context, identifier string) (*User, error)
	FindWithRoleTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error)

	EmailTakenTx(ctx context.Context, tx bun.IDB, email string, exclude uuid.UUID) (bool, error)
	UsernameTakenTx(ctx context.Context, tx bun.IDB, username string, exclude uuid.UUID) (bool, error)

	SetConfirmedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	SetPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string) error
	SetEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, email string) error
	SetRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, roleID uuid.UUID) error
	TouchLastSeenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error
	SaveProfileTx(ctx context.Context, tx bun.IDB, user *User) error

	Page(ctx context.Context, pagination Pagination) ([]*User, Pagination, error)

	Remove(ctx context.Context, id uuid.UUID) error
	RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
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
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
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

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

// RegisterTx stores a new user, failing with a conflict error when the
// email or username is taken.
func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	prepareUserDefaults(user)

	taken, err := a.EmailTakenTx(ctx, tx, user.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	taken, err = a.UsernameTakenTx(ctx, tx, user.Username, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

// GetByIdentifierTx resolves id, email or username, in that order
func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) FindWithRole(ctx context.Context, identifier string) (*User, error) {
	return a.FindWithRoleTx(ctx, a.db, identifier)
}

// FindWithRoleTx is GetByIdentifierTx with the role relation loaded
func (a *users) FindWithRoleTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	return a.GetByIdentifierTx(ctx, tx, identifier, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Role")
	})
}

func (a *users) EmailTakenTx(ctx context.Context, tx bun.IDB, email string, exclude uuid.UUID) (bool, error) {
	return a.takenTx(ctx, tx, "email", NormalizeEmail(email), exclude)
}

func (a *users) UsernameTakenTx(ctx context.Context, tx bun.IDB, username string, exclude uuid.UUID) (bool, error) {
	return a.takenTx(ctx, tx, "username", strings.TrimSpace(username), exclude)
}

func (a *users) takenTx(ctx context.Context, tx bun.IDB, column, value string, exclude uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*User)(nil)).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value)

	if exclude != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", exclude.String())
	}

	return q.Exists(ctx)
}

func (a *users) SetConfirmedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return a.updateColumnsTx(ctx, tx, &User{ID: id, Confirmed: true}, "confirmed")
}

func (a *users) SetPasswordHashTx(ctx context.Context, tx bun.IDB, id uuid.UUID, hash string) error {
	return a.updateColumnsTx(ctx, tx, &User{ID: id, PasswordHash: hash}, "password_hash")
}

func (a *users) SetEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, email string) error {
	return a.updateColumnsTx(ctx, tx, &User{ID: id, Email: NormalizeEmail(email)}, "email")
}

func (a *users) SetRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID, roleID uuid.UUID) error {
	record := &User{ID: id, RoleID: &roleID}
	return a.updateColumnsTx(ctx, tx, record, "role_id")
}

func (a *users) TouchLastSeenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) error {
	return a.updateColumnsTx(ctx, tx, &User{ID: id, LastSeen: at.UTC()}, "last_seen")
}

func (a *users) SaveProfileTx(ctx context.Context, tx bun.IDB, user *User) error {
	return a.updateColumnsTx(ctx, tx, user, "name", "location", "about_me", "phone_number")
}

// updateColumnsTx writes only the named columns, zero values included
func (a *users) updateColumnsTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) error {
	res, err := tx.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": record.ID.String(),
			})
	}
	return nil
}

// Page lists users ordered by registration date with their roles
func (a *users) Page(ctx context.Context, pagination Pagination) ([]*User, Pagination, error) {
	total, err := a.db.NewSelect().Model((*User)(nil)).Count(ctx)
	if err != nil {
		return nil, pagination, err
	}
	pagination.Total = total

	records := []*User{}
	err = a.db.NewSelect().
		Model(&records).
		Relation("Role").
		OrderExpr("?TableAlias.member_since ASC").
		Limit(pagination.PerPage).
		Offset(pagination.Offset()).
		Scan(ctx)
	if err != nil {
		return nil, pagination, err
	}

	return records, pagination, nil
}

func (a *users) Remove(ctx context.Context, id uuid.UUID) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.RemoveTx(ctx, tx, id)
	})
}

// RemoveTx deletes a user together with every follow edge on either
// side and the user's posts.
func (a *users) RemoveTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	if _, err := tx.NewDelete().
		Model((*Follow)(nil)).
		Where("follower_id = ? OR followed_id = ?", id.String(), id.String()).
		Exec(ctx); err != nil {
		return err
	}

	if _, err := tx.NewDelete().
		Model((*Post)(nil)).
		Where("author_id = ?", id.String()).
		Exec(ctx); err != nil {
		return err
	}

	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("id = ?", id.String()).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}
	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := time.Now().UTC()
	if record.MemberSince.IsZero() {
		record.MemberSince = now
	}
	if record.LastSeen.IsZero() {
		record.LastSeen = now
	}

	record.Email = NormalizeEmail(record.Email)
	record.Username = strings.TrimSpace(record.Username)
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  NormalizeEmail(trimmed),
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}

func isNotFound(err error) bool {
	return err == sql.ErrNoRows || repository.IsRecordNotFound(err)
}
