package zeen

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Roles is the role store
type Roles interface {
	repository.Repository[*Role]

	GetByName(ctx context.Context, name string) (*Role, error)
	GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error)
	DefaultRoleTx(ctx context.Context, tx bun.IDB) (*Role, error)

	InsertRoles(ctx context.Context) error
	InsertRolesTx(ctx context.Context, tx bun.IDB, defs []RoleDefinition) error
}

type roles struct {
	repository.Repository[*Role]
	db *bun.DB
}

var _ Roles = (*roles)(nil)

func NewRolesRepository(db *bun.DB) Roles {
	repo := repository.NewRepository[*Role](db, repository.ModelHandlers[*Role]{
		NewRecord: func() *Role { return &Role{} },
		GetID: func(r *Role) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Role, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &roles{
		Repository: repo,
		db:         db,
	}
}

func (r *roles) GetByName(ctx context.Context, name string) (*Role, error) {
	return r.GetByNameTx(ctx, r.db, name)
}

func (r *roles) GetByNameTx(ctx context.Context, tx bun.IDB, name string) (*Role, error) {
	record := &Role{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.name = ?", name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"name": name})
		}
		return nil, err
	}
	return record, nil
}

// DefaultRoleTx returns the role assigned to new accounts
func (r *roles) DefaultRoleTx(ctx context.Context, tx bun.IDB) (*Role, error) {
	record := &Role{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.is_default = ?", true).
		OrderExpr("?TableAlias.name ASC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNoDefaultRole
		}
		return nil, err
	}
	return record, nil
}

// InsertRoles seeds DefaultRoles in its own transaction
func (r *roles) InsertRoles(ctx context.Context) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return r.InsertRolesTx(ctx, tx, DefaultRoles)
	})
}

// InsertRolesTx creates missing roles and resets permissions and the
// default flag of existing ones. Roles outside defs lose the default
// flag so exactly one default remains. Running it twice is a no-op.
func (r *roles) InsertRolesTx(ctx context.Context, tx bun.IDB, defs []RoleDefinition) error {
	names := make([]string, 0, len(defs))

	for _, def := range defs {
		names = append(names, def.Name)

		role, err := r.GetByNameTx(ctx, tx, def.Name)
		if err != nil && !isNotFound(err) {
			return err
		}

		if role == nil {
			role = &Role{ID: roleID(def.Name), Name: def.Name}
			role.Permissions = def.Permissions
			role.Default = def.Default
			if _, err := tx.NewInsert().Model(role).Exec(ctx); err != nil {
				return err
			}
			continue
		}

		role.Permissions = def.Permissions
		role.Default = def.Default
		if _, err := tx.NewUpdate().
			Model(role).
			Column("permissions", "is_default").
			WherePK().
			Exec(ctx); err != nil {
			return err
		}
	}

	if len(names) == 0 {
		return nil
	}

	_, err := tx.NewUpdate().
		Model((*Role)(nil)).
		Set("is_default = ?", false).
		Where("name NOT IN (?)", bun.In(names)).
		Exec(ctx)
	return err
}

// roleID derives a stable id from the role name so seeded roles share
// ids across databases.
func roleID(name string) uuid.UUID {
	if id, err := hashid.NewUUID("role:" + name); err == nil {
		return id
	}
	return uuid.New()
}
