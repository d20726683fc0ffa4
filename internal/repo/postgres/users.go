package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/jobtracker/internal/domain/user"
	"github.com/geocoder89/jobtracker/internal/observability"
	"github.com/geocoder89/jobtracker/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = "id, username, email, password_hash, created_at, updated_at"

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.prom.ObserveDB("users.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
		)
		return e
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrDuplicateIdentity
		}
		return user.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, user.NormalizeEmail(email))
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	if !utils.IsUUID(id) {
		return user.User{}, user.ErrUserNotFound
	}

	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		return r.pool.QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Username,
			&u.Email,
			&u.PasswordHash,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}

		return user.User{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateProfile changes only the provided fields. The password hash is never touched.
func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) error {
	if !utils.IsUUID(id) {
		return user.ErrUserNotFound
	}

	query, args, err := buildProfileUpdate(id, upd)
	if err != nil {
		return err
	}

	var affected int64

	err = r.prom.ObserveDB("users.update_profile", func() error {
		tag, e := r.pool.Exec(ctx, query, args...)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrDuplicateIdentity
		}
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func buildProfileUpdate(id string, upd user.ProfileUpdate) (string, []any, error) {
	b := psql.Update("users")

	if upd.Username != nil {
		b = b.Set("username", *upd.Username)
	}

	if upd.Email != nil {
		b = b.Set("email", user.NormalizeEmail(*upd.Email))
	}

	return b.Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
}
