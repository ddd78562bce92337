package zeen

import (
	"context"
	"database/sql"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager bundles the zeen repositories over one bun.DB so
// services can share a transaction across them
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	DB() *bun.DB
	Users() Users
	Roles() Roles
	Follows() Follows
	Posts() Posts
}

type mngr struct {
	db      *bun.DB
	users   Users
	roles   Roles
	follows Follows
	posts   Posts
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:      db,
		users:   NewUsersRepository(db),
		roles:   NewRolesRepository(db),
		follows: NewFollowsRepository(db),
		posts:   NewPostsRepository(db),
	}
}

// Validate reports every repository left unset
func (m mngr) Validate() error {
	missing := []string{}
	if m.db == nil {
		missing = append(missing, "db")
	}
	for name, ok := range map[string]bool{
		"users":   m.users != nil,
		"roles":   m.roles != nil,
		"follows": m.follows != nil,
		"posts":   m.posts != nil,
	} {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return goerrors.New("repository manager is not initialized", goerrors.CategoryInternal).
		WithMetadata(map[string]any{"missing": missing})
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.RunInTx(ctx, opts, f)
}

func (m mngr) DB() *bun.DB {
	return m.db
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Roles() Roles {
	return m.roles
}

func (m mngr) Follows() Follows {
	return m.follows
}

func (m mngr) Posts() Posts {
	return m.posts
}
