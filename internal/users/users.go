package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) InsertUser(ctx context.Context, newUser NewUser) (User, error) {
	hash, err := HashPassword(newUser.Password)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(newUser.Email),
		PasswordHash: hash,
		Roles:        []string{"USER"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	query := `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING
	`
	res, err := c.db.ExecContext(ctx, query, user.ID, user.Email, user.PasswordHash,
		user.Roles[0], user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, ErrEmailTaken
	}
	return user, nil
}

func (c *Conf) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, role, last_login, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user User
	var role string
	err := c.db.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &role,
		&user.LastLogin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	user.Roles = []string{role}
	return user, nil
}

func (c *Conf) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE users SET last_login = NOW(), updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (c *Conf) UpsertDeviceSession(ctx context.Context, userID, deviceID string) error {
	query := `
		INSERT INTO device_sessions (id, user_id, device_id, last_active)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, device_id) DO UPDATE SET last_active = NOW()
	`
	_, err := c.db.ExecContext(ctx, query, uuid.NewString(), userID, deviceID)
	if err != nil {
		return fmt.Errorf("failed to upsert device session: %w", err)
	}
	return nil
}

func (c *Conf) ListDeviceSessions(ctx context.Context, userID string) ([]DeviceSession, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, device_id, last_active
		 FROM device_sessions
		 WHERE user_id = $1
		 ORDER BY last_active DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device sessions: %w", err)
	}
	defer rows.Close()

	var sessions []DeviceSession
	for rows.Next() {
		var s DeviceSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.LastActive); err != nil {
			return nil, fmt.Errorf("failed to scan device session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating device sessions: %w", err)
	}
	return sessions, nil
}
