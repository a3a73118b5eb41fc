package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("user already exists")
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Roles        []string   `json:"roles"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type NewUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// DeviceSession tracks one device a user has logged in from.
type DeviceSession struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	DeviceID   string    `json:"device_id"`
	LastActive time.Time `json:"last_active"`
}

// Store is the account contract the handlers depend on.
type Store interface {
	InsertUser(ctx context.Context, newUser NewUser) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
	UpsertDeviceSession(ctx context.Context, userID, deviceID string) error
	ListDeviceSessions(ctx context.Context, userID string) ([]DeviceSession, error)
}
