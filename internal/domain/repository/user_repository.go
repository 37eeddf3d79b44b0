package repository

import (
	"context"

	"github.com/oksasatya/competitor-radar/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	// FindOrCreateByEmail returns the user for email, creating it on first
	// sign-in. created reports whether a new row was inserted.
	FindOrCreateByEmail(ctx context.Context, email string) (u *entity.User, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	TouchLogin(ctx context.Context, id string) error
}
