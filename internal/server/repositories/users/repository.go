package users

import (
	"context"

	"github.com/dmitrijs2005/passvault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySecret(ctx context.Context, secret string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
