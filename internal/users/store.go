package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"inventory-backend/internal/permission"
	"inventory-backend/internal/store"
)

// Store loads and saves user records. Permission sets are persisted
// as JSONB and re-normalized on load so the rest of the system can
// assume the set invariants hold.
type Store struct {
	db     *store.Store
	fields permission.Fields
}

func NewStore(db *store.Store, fields permission.Fields) *Store {
	return &Store{db: db, fields: fields}
}

const userColumns = "id, username, email, role, permissions, created_at, updated_at"

// GetByID loads a user with role and permissions populated.
func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	row := s.db.Pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM _users WHERE id = $1", id)
	return s.scanUser(row)
}

// GetByEmail loads a user plus the credential hash, for login.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, string, error) {
	row := s.db.Pool.QueryRow(ctx,
		"SELECT "+userColumns+", password_hash FROM _users WHERE email = $1", email)

	var (
		u        User
		rawPerms []byte
		hash     string
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &rawPerms,
		&u.CreatedAt, &u.UpdatedAt, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", store.ErrNotFound
		}
		return nil, "", fmt.Errorf("get user by email: %w", err)
	}
	if err := s.decodePermissions(rawPerms, &u); err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

// List returns all users ordered by creation time. Credential hashes
// are never loaded here.
func (s *Store) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.Pool.Query(ctx,
		"SELECT "+userColumns+" FROM _users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		u, err := s.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Create inserts a user with an already-hashed credential and an
// already-normalized permission set.
func (s *Store) Create(ctx context.Context, username, email, hash string, role permission.Role, set permission.Set) (*User, error) {
	perms, err := json.Marshal(normalizedOrEmpty(set))
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}

	row := s.db.Pool.QueryRow(ctx,
		`INSERT INTO _users (username, email, password_hash, role, permissions)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		username, email, hash, string(role), perms)
	return s.scanUser(row)
}

// Update replaces the mutable profile fields and the permission set.
// The whole set is written in one statement: concurrent edits resolve
// last-write-wins.
func (s *Store) Update(ctx context.Context, id, username, email string, role permission.Role, set permission.Set) (*User, error) {
	perms, err := json.Marshal(normalizedOrEmpty(set))
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}

	row := s.db.Pool.QueryRow(ctx,
		`UPDATE _users
		 SET username = $2, email = $3, role = $4, permissions = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, username, email, string(role), perms)
	return s.scanUser(row)
}

// UpdatePermissions replaces only the permission set.
func (s *Store) UpdatePermissions(ctx context.Context, id string, set permission.Set) error {
	perms, err := json.Marshal(normalizedOrEmpty(set))
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}
	affected, err := store.Exec(ctx, s.db.Pool,
		"UPDATE _users SET permissions = $2, updated_at = NOW() WHERE id = $1", id, perms)
	if err != nil {
		return fmt.Errorf("update permissions: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the user record; the owned permission set and any
// refresh tokens go with it in the same statement (cascade).
func (s *Store) Delete(ctx context.Context, id string) error {
	affected, err := store.Exec(ctx, s.db.Pool, "DELETE FROM _users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) scanUser(row pgx.Row) (*User, error) {
	var (
		u        User
		rawPerms []byte
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &rawPerms,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if err := s.decodePermissions(rawPerms, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) decodePermissions(raw []byte, u *User) error {
	var entries []permission.FieldPermission
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("decode permissions for user %s: %w", u.ID, err)
		}
	}
	set, err := permission.Normalize(entries, s.fields)
	if err != nil {
		return fmt.Errorf("stored permissions for user %s: %w", u.ID, err)
	}
	u.Permissions = set
	return nil
}

// normalizedOrEmpty keeps JSONB columns as [] rather than null.
func normalizedOrEmpty(set permission.Set) permission.Set {
	if set == nil {
		return permission.Set{}
	}
	return set
}
