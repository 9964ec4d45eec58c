package rbac

import (
	"context"
	"strings"
)

// Checker answers permission questions for a role policy. A permission is
// "resource:action"; a policy entry may end in "*" to grant a whole prefix.
type Checker struct {
	RolePermissions map[string][]string
}

// Default uses RolePermissions.
var Default = NewChecker(nil)

func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role, perm string) bool {
	for _, p := range c.RolePermissions[role] {
		if matchPerm(p, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

// Can reports whether the role carried by ctx has perm.
func (c *Checker) Can(ctx context.Context, perm string) bool {
	role := RoleFromContext(ctx)
	return role != "" && c.Has(role, perm)
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRole).(string); ok {
		return s
	}
	return ""
}
