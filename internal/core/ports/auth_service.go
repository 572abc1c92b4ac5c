package ports

import (
	"context"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// AuthService authenticates configured users and issues access tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
}
