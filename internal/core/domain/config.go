package domain

import "strings"

// Tenant is an isolated customer namespace. Upstream services receive its ID
// in the X-Tenant-ID header on every forwarded request.
type Tenant struct {
	ID string `yaml:"id" json:"id" validate:"required"`
}

// ProxyRoute is a single forwarding rule. Endpoint is the inbound path
// prefix, Target the upstream base URL. The endpoint prefix is never
// stripped from the forwarded path.
type ProxyRoute struct {
	Endpoint     string `yaml:"endpoint" json:"endpoint" validate:"required"`
	Target       string `yaml:"target" json:"target" validate:"required,url"`
	Resource     string `yaml:"resource" json:"resource,omitempty"`
	Rewrite      string `yaml:"rewrite" json:"rewrite,omitempty"`
	ChangeOrigin bool   `yaml:"change_origin" json:"change_origin"`
}

// ResourceName resolves the resource the authorization engine checks for
// this route: the explicit override if configured, otherwise the last
// non-empty segment of the endpoint (/api/v1/graph -> graph).
func (r ProxyRoute) ResourceName() string {
	if r.Resource != "" {
		return r.Resource
	}
	segments := strings.Split(strings.Trim(r.Endpoint, "/"), "/")
	return segments[len(segments)-1]
}

// User is a configured principal. Password may be a bcrypt hash or, in test
// configurations, a plaintext value.
type User struct {
	Name     string   `yaml:"name" json:"name" validate:"required"`
	Password string   `yaml:"password" json:"-" validate:"required"`
	TenantID string   `yaml:"tenant_id" json:"tenant_id" validate:"required"`
	Roles    []string `yaml:"roles" json:"roles"`
}

// Permission is one grant within a role. A resource or action of "*"
// matches anything.
type Permission struct {
	Resource string   `yaml:"resource" json:"resource" validate:"required"`
	Actions  []string `yaml:"actions" json:"actions" validate:"min=1"`
}

// Snapshot is the immutable gateway configuration, created once at startup
// and read-only for the lifetime of the process. All request handling does
// lookups against it without synchronization.
type Snapshot struct {
	Tenants []Tenant                `yaml:"tenants"`
	Proxy   []ProxyRoute            `yaml:"proxy"`
	Users   []User                  `yaml:"users"`
	Roles   map[string][]Permission `yaml:"roles"`

	usersByName map[string]*User
}

// Index builds the internal lookup tables. The loader calls it once before
// the snapshot is published; it must not be called afterwards.
func (s *Snapshot) Index() {
	s.usersByName = make(map[string]*User, len(s.Users))
	for i := range s.Users {
		s.usersByName[s.Users[i].Name] = &s.Users[i]
	}
}

// UserByName returns the configured user with the given name, or nil.
func (s *Snapshot) UserByName(name string) *User {
	if s.usersByName != nil {
		return s.usersByName[name]
	}
	for i := range s.Users {
		if s.Users[i].Name == name {
			return &s.Users[i]
		}
	}
	return nil
}

// HasTenant reports whether a tenant with the given ID is configured.
func (s *Snapshot) HasTenant(id string) bool {
	for _, t := range s.Tenants {
		if t.ID == id {
			return true
		}
	}
	return false
}
