// Package users stores the user rows the auth core reads on login and
// creates on registration.
package users

import (
	"context"

	"github.com/aidemoi/aidemoi/internal/server/models"
)

type Repository interface {
	// Create inserts the user and fills ID and CreatedAt. A taken email
	// yields common.ErrDuplicateEmail.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}
