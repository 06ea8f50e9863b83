package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/bible-atlas-api/internal/store"
)

const userColumns = `id, COALESCE(provider, ''), COALESCE(provider_id, ''), COALESCE(name, ''),
	COALESCE(email, ''), COALESCE(password, ''), role, COALESCE(avatar, ''), COALESCE(phone_token, ''),
	created_at, updated_at, deleted_at, version`

func scanUser(row pgx.Row) (store.User, error) {
	var u store.User
	err := row.Scan(
		&u.ID,
		&u.Provider,
		&u.ProviderID,
		&u.Name,
		&u.Email,
		&u.Password,
		&u.Role,
		&u.Avatar,
		&u.PhoneToken,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
		&u.Version,
	)
	return u, err
}

// CreateUser inserts an account and returns the stored row.
func (s *Store) CreateUser(ctx context.Context, u store.User) (store.User, error) {
	query := `
		INSERT INTO users (provider, provider_id, name, email, password, role, avatar)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, NULLIF($7, ''))
		RETURNING ` + userColumns
	created, err := scanUser(s.pool.QueryRow(ctx, query,
		string(u.Provider), u.ProviderID, u.Name, u.Email, u.Password, int(u.Role), u.Avatar))
	if err != nil {
		return store.User{}, mapError(err, "insert user")
	}
	return created, nil
}

// GetUser fetches a live account by id.
func (s *Store) GetUser(ctx context.Context, id int64) (store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	u, err := scanUser(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		return store.User{}, mapError(err, "get user")
	}
	return u, nil
}

// FindUserByEmail looks an account up by email, optionally including soft
// deleted rows.
func (s *Store) FindUserByEmail(ctx context.Context, email string, withDeleted bool) (store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND ($2 OR deleted_at IS NULL)`
	u, err := scanUser(s.pool.QueryRow(ctx, query, email, withDeleted))
	if err != nil {
		return store.User{}, mapError(err, "find user by email")
	}
	return u, nil
}

// FindUserByProvider looks a federated account up.
func (s *Store) FindUserByProvider(
	ctx context.Context,
	provider store.Provider,
	providerID string,
	withDeleted bool,
) (store.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users WHERE provider = $1 AND provider_id = $2 AND ($3 OR deleted_at IS NULL)`
	u, err := scanUser(s.pool.QueryRow(ctx, query, string(provider), providerID, withDeleted))
	if err != nil {
		return store.User{}, mapError(err, "find user by provider")
	}
	return u, nil
}

// RestoreUser clears the soft delete marker.
func (s *Store) RestoreUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET deleted_at = NULL, updated_at = now(), version = version + 1 WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "restore user")
	}
	return requireRow(tag)
}

// ListUsers pages through live accounts, newest first.
func (s *Store) ListUsers(ctx context.Context, page store.Page) ([]store.User, int, error) {
	page = page.Normalize()
	total, err := countRows(ctx, s.pool, `SELECT count(*) FROM users WHERE deleted_at IS NULL`)
	if err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+`
		FROM users WHERE deleted_at IS NULL ORDER BY id DESC LIMIT $1 OFFSET $2`, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes an account permanently.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "delete user")
	}
	return requireRow(tag)
}

// WithdrawUser soft deletes the account and drops its personal data.
func (s *Store) WithdrawUser(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(q querier) error {
		tag, err := q.Exec(ctx, `UPDATE users SET deleted_at = now(), updated_at = now(), version = version + 1
			WHERE id = $1 AND deleted_at IS NULL`, id)
		if err != nil {
			return mapError(err, "soft delete user")
		}
		if err := requireRow(tag); err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM user_place_like WHERE user_id = $1`,
			`DELETE FROM user_place_save WHERE user_id = $1`,
			`DELETE FROM user_place_memo WHERE user_id = $1`,
			`UPDATE proposal SET creator_id = NULL WHERE creator_id = $1`,
		} {
			if _, err := q.Exec(ctx, stmt, id); err != nil {
				return mapError(err, "withdraw user")
			}
		}
		return nil
	})
}
