package proxy

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// Validator decodes bearer tokens and re-binds their claims against the
// configuration snapshot. The identity it returns is built entirely from the
// snapshot's user entry; token roles and tenant are only compared, never
// propagated.
type Validator struct {
	secret   []byte
	snapshot *domain.Snapshot
}

func NewValidator(secret string, snapshot *domain.Snapshot) *Validator {
	return &Validator{secret: []byte(secret), snapshot: snapshot}
}

// Bind turns a raw Authorization header value into a bound identity, or an
// error wrapping one of the domain rejection kinds. The wrapped message
// carries the precise reason for logging; the error handler collapses all
// binding failures into one external 401 message.
func (v *Validator) Bind(header string) (*domain.Identity, error) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, domain.ErrMissingAuthHeader
	}

	mapClaims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], mapClaims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("parse token: %v: %w", err, domain.ErrInvalidToken)
	}

	claims, err := extractClaims(mapClaims)
	if err != nil {
		return nil, err
	}

	user := v.snapshot.UserByName(claims.Subject)
	if user == nil {
		return nil, fmt.Errorf("subject %q not found: %w", claims.Subject, domain.ErrCredentialBinding)
	}
	if claims.TenantID != user.TenantID {
		return nil, fmt.Errorf("tenant mismatch for subject %q: %w", claims.Subject, domain.ErrCredentialBinding)
	}
	if !sameRoleSet(claims.Roles, user.Roles) {
		return nil, fmt.Errorf("role mismatch for subject %q: %w", claims.Subject, domain.ErrCredentialBinding)
	}

	return &domain.Identity{
		Subject:  user.Name,
		Roles:    user.Roles,
		TenantID: user.TenantID,
	}, nil
}

// extractClaims checks the shape of the required custom claims: sub and
// tenant_id must be non-empty strings, roles a non-empty list of strings.
// A roles value of any other type is a rejection, not a coercion.
func extractClaims(claims jwt.MapClaims) (*domain.TokenClaims, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("missing sub claim: %w", domain.ErrCredentialBinding)
	}
	tenant, _ := claims["tenant_id"].(string)
	if tenant == "" {
		return nil, fmt.Errorf("missing tenant_id claim: %w", domain.ErrCredentialBinding)
	}

	rawRoles, ok := claims["roles"].([]interface{})
	if !ok || len(rawRoles) == 0 {
		return nil, fmt.Errorf("missing or malformed roles claim: %w", domain.ErrCredentialBinding)
	}
	roles := make([]string, 0, len(rawRoles))
	for _, r := range rawRoles {
		role, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("non-string role in roles claim: %w", domain.ErrCredentialBinding)
		}
		roles = append(roles, role)
	}

	return &domain.TokenClaims{Subject: sub, Roles: roles, TenantID: tenant}, nil
}

func sameRoleSet(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, r := range a {
		set[r] = struct{}{}
	}
	if len(set) != uniqueCount(b) {
		return false
	}
	for _, r := range b {
		if _, ok := set[r]; !ok {
			return false
		}
	}
	return true
}

func uniqueCount(roles []string) int {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return len(set)
}
