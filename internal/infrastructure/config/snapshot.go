// Package config loads the gateway configuration snapshot from a YAML file.
// The snapshot is validated once here and never mutated afterwards; the
// request pipeline only reads it.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/fernwall/tenant-gateway/internal/core/domain"
)

// Load reads, decodes, and validates the snapshot at path.
func Load(path string) (*domain.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a snapshot from raw YAML bytes.
func Parse(raw []byte) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate(&snap); err != nil {
		return nil, err
	}
	snap.Index()
	return &snap, nil
}

func validate(snap *domain.Snapshot) error {
	v := validator.New()

	for i, t := range snap.Tenants {
		if err := v.Struct(t); err != nil {
			return fmt.Errorf("tenant #%d: %w", i, err)
		}
	}

	seen := make(map[string]struct{}, len(snap.Proxy))
	for i, route := range snap.Proxy {
		if err := v.Struct(route); err != nil {
			return fmt.Errorf("proxy route #%d: %w", i, err)
		}
		if _, dup := seen[route.Endpoint]; dup {
			return fmt.Errorf("proxy route #%d: duplicate endpoint %q", i, route.Endpoint)
		}
		seen[route.Endpoint] = struct{}{}
	}

	for name, perms := range snap.Roles {
		for i, p := range perms {
			if err := v.Struct(p); err != nil {
				return fmt.Errorf("role %q permission #%d: %w", name, i, err)
			}
		}
	}

	for i, u := range snap.Users {
		if err := v.Struct(u); err != nil {
			return fmt.Errorf("user #%d: %w", i, err)
		}
		if !snap.HasTenant(u.TenantID) {
			return fmt.Errorf("user %q references unknown tenant %q", u.Name, u.TenantID)
		}
		for _, role := range u.Roles {
			if _, ok := snap.Roles[role]; !ok {
				return fmt.Errorf("user %q references unknown role %q", u.Name, role)
			}
		}
	}

	return nil
}
