package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// AuthService implements login against the configuration snapshot's user
// entries. It holds no state beyond the immutable snapshot.
type AuthService struct {
	snapshot  *domain.Snapshot
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(snapshot *domain.Snapshot, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &AuthService{snapshot: snapshot, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Login verifies the credentials and returns a signed access token carrying
// the user's subject, roles, tenant, and expiry. The configured password may
// be a bcrypt hash; a direct comparison is tried first so test
// configurations can use plaintext values.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user := s.snapshot.UserByName(username)
	if user == nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	if password != user.Password &&
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":       user.Name,
		"roles":     user.Roles,
		"tenant_id": user.TenantID,
		"exp":       time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
