package auth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Goblinzzzzzz/boxuemingti-sub004/internal/ids"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store for tests and local development. It
// mirrors the PG store's semantics: unique email, idempotent ensures,
// silent skip of unknown permission keys in SetForRole.
type MemStore struct {
	mu         sync.Mutex
	users      map[string]*User
	byEmail    map[string]string
	roles      map[string]*Role
	roleByName map[string]string
	userRoles  map[string]map[string]struct{}
	perms      map[string]*Permission
	permByKey  map[string]string
	rolePerms  map[string]map[string]struct{}
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:      make(map[string]*User),
		byEmail:    make(map[string]string),
		roles:      make(map[string]*Role),
		roleByName: make(map[string]string),
		userRoles:  make(map[string]map[string]struct{}),
		perms:      make(map[string]*Permission),
		permByKey:  make(map[string]string),
		rolePerms:  make(map[string]map[string]struct{}),
	}
}

func (s *MemStore) Users(context.Context) UserStore { return s }
func (s *MemStore) Roles(context.Context) RoleStore { return s }

// Permissions returns a view type because PermissionStore's Ensure and
// List signatures differ from RoleStore's.
func (s *MemStore) Permissions(context.Context) PermissionStore { return memPerms{s} }

func (s *MemStore) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return fmt.Errorf("%w: users_email_key", ErrConflict)
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *MemStore) Find(ctx context.Context, id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.Lock()
	id, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.Find(ctx, id)
}

func (s *MemStore) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// SetStatus flips an account's status. Test helper; the HTTP surface has
// no disable endpoint yet.
func (s *MemStore) SetStatus(userID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.Status = status
	}
}

func (s *MemStore) Ensure(ctx context.Context, role *Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.roleByName[role.Name]; ok {
		role.ID = id
		return nil
	}
	if role.ID == "" {
		role.ID = ids.New()
	}
	role.CreatedAt = time.Now().UTC()
	cp := *role
	s.roles[role.ID] = &cp
	s.roleByName[role.Name] = role.ID
	return nil
}

func (s *MemStore) FindByName(ctx context.Context, name string) (*Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.roleByName[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.roles[id]
	return &cp, nil
}

func (s *MemStore) List(ctx context.Context) ([]Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Role, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemStore) Assign(ctx context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.userRoles[userID]
	if !ok {
		set = make(map[string]struct{})
		s.userRoles[userID] = set
	}
	set[roleID] = struct{}{}
	return nil
}

func (s *MemStore) Remove(ctx context.Context, userID, roleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.userRoles[userID], roleID)
	return nil
}

func (s *MemStore) RolesForUser(ctx context.Context, userID string) ([]Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Role
	for id := range s.userRoles[userID] {
		if r, ok := s.roles[id]; ok {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memPerms struct{ s *MemStore }

func (v memPerms) Ensure(ctx context.Context, perms []Permission) error {
	return v.s.ensurePermissions(perms)
}

func (v memPerms) List(ctx context.Context) ([]Permission, error) {
	return v.s.listPermissions()
}

func (v memPerms) SetForRole(ctx context.Context, roleID string, keys []string) error {
	return v.s.setForRole(roleID, keys)
}

func (v memPerms) PermissionsForRole(ctx context.Context, roleID string) ([]Permission, error) {
	return v.s.permissionsForRole(roleID)
}

func (s *MemStore) ensurePermissions(perms []Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range perms {
		key := p.Key()
		if _, ok := s.permByKey[key]; ok {
			continue
		}
		if p.ID == "" {
			p.ID = ids.New()
		}
		p.CreatedAt = time.Now().UTC()
		cp := p
		s.perms[p.ID] = &cp
		s.permByKey[key] = p.ID
	}
	return nil
}

func (s *MemStore) listPermissions() ([]Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Permission, 0, len(s.perms))
	for _, p := range s.perms {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (s *MemStore) setForRole(roleID string, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		id, ok := s.permByKey[strings.TrimSpace(key)]
		if !ok {
			continue
		}
		set[id] = struct{}{}
	}
	s.rolePerms[roleID] = set
	return nil
}

func (s *MemStore) permissionsForRole(roleID string) ([]Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Permission
	for id := range s.rolePerms[roleID] {
		if p, ok := s.perms[id]; ok {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}
