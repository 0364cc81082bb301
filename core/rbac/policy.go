package rbac

import (
	"sort"
	"sync"
)

type Policy struct {
	mu        sync.RWMutex
	rolePerms map[string]map[Permission]struct{}
}

func NewPolicy() *Policy {
	p := &Policy{rolePerms: map[string]map[Permission]struct{}{}}
	for role, perms := range rolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, perm := range perms {
			set[perm] = struct{}{}
		}
		p.rolePerms[role] = set
	}
	return p
}

func (p *Policy) Allowed(role string, perm Permission) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	perms, ok := p.rolePerms[role]
	if !ok {
		return false
	}
	_, ok = perms[perm]
	return ok
}

// PermissionsForRole returns the grants for one role, for menu building.
func (p *Policy) PermissionsForRole(role string) []Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	perms, ok := p.rolePerms[role]
	if !ok {
		return nil
	}
	out := make([]Permission, 0, len(perms))
	for perm := range perms {
		out = append(out, perm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
