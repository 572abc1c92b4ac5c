package domain

// TokenClaims is the decoded bearer token payload. Its roles and tenant are
// the token's assertion only; they must never feed an authorization decision
// directly.
type TokenClaims struct {
	Subject  string
	Roles    []string
	TenantID string
}

// Identity is the authorized request identity after claim binding. Roles and
// TenantID are copied from the configuration snapshot, not from the token,
// so a configuration change takes effect on the next request regardless of
// previously issued tokens.
type Identity struct {
	Subject  string
	Roles    []string
	TenantID string
}
