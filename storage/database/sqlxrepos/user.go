package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{base{db: db}}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	query := `SELECT COUNT(*) FROM users WHERE email = ?`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		query += ` AND id NOT IN (?)`
		args = append(args, ids)
	}

	query, args, err := in(query, args...)
	if err != nil {
		return err
	}
	var count int
	if err = repo.ex(exec...).GetContext(ctx, &count, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	err := repo.ex(exec...).QueryRowxContext(ctx,
		`INSERT INTO users (first_name, last_name, email, role, is_active, password_hash, created_at, updated_at, last_login)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		usr.FirstName, usr.LastName, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	).Scan(&usr.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.ex(exec...).SelectContext(ctx, &users, `SELECT * FROM users ORDER BY id`)
	return users, errors.Wrap(err, "querying users")
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	var usr user.User
	if err := repo.ex(exec...).GetContext(ctx, &usr, `SELECT * FROM users WHERE id = $1`, id); err != nil {
		return user.User{}, wrapNotFound(errors.Wrap(err, "getting user"), user.ErrNotFound)
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	var usr user.User
	if err := repo.ex(exec...).GetContext(ctx, &usr, `SELECT * FROM users WHERE email = $1`, email); err != nil {
		return user.User{}, wrapNotFound(errors.Wrap(err, "getting user"), user.ErrNotFound)
	}
	return usr, nil
}

// UpdateUser saves set fields only; zero-valued fields keep their stored value.
func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	set := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if usr.FirstName != "" {
		set("first_name", usr.FirstName)
	}
	if usr.LastName != "" {
		set("last_name", usr.LastName)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if !usr.UpdatedAt.IsZero() {
		set("updated_at", usr.UpdatedAt)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin)
	}
	if len(sets) == 0 {
		return repo.GetUserByID(ctx, usr.ID, exec...)
	}

	args = append(args, usr.ID)
	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := repo.ex(exec...).ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := in(`DELETE FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = repo.ex(exec...).ExecContext(ctx, query, args...)
	return errors.Wrap(err, "deleting users")
}
