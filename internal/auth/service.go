package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service provides registration, credential login, stateless token refresh
// and principal resolution on top of a Store and a TokenIssuer.
type Service struct {
	store  Store
	tokens *TokenIssuer
	now    func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs the auth service.
func NewService(store Store, tokens *TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	svc := &Service{store: store, tokens: tokens, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Tokens exposes the issuer for the HTTP layer's verification path.
func (s *Service) Tokens() *TokenIssuer { return s.tokens }

// EnsureBuiltins seeds the permission catalog, the builtin roles and their
// grants. Idempotent; runs at startup.
func (s *Service) EnsureBuiltins(ctx context.Context) error {
	if err := s.store.Permissions(ctx).Ensure(ctx, BuiltinPermissions); err != nil {
		return fmt.Errorf("ensure permissions: %w", err)
	}
	roles := s.store.Roles(ctx)
	for _, name := range []string{RoleUser, RoleReviewer, RoleAdmin} {
		role := &Role{Name: name}
		if err := roles.Ensure(ctx, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", name, err)
		}
		if err := s.store.Permissions(ctx).SetForRole(ctx, role.ID, BuiltinRoleGrants[name]); err != nil {
			return fmt.Errorf("grant role %s: %w", name, err)
		}
	}
	return nil
}

// RegisterInput carries the registration request fields.
type RegisterInput struct {
	Email        string
	Password     string
	Name         string
	Organization string
}

// Register creates an account, hashes the password and assigns the builtin
// "user" role. Duplicate email surfaces as ErrConflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Organization: strings.TrimSpace(in.Organization),
		Status:       UserStatusActive,
	}
	if err := s.store.Users(ctx).Create(ctx, user); err != nil {
		return nil, err
	}

	role, err := s.store.Roles(ctx).FindByName(ctx, RoleUser)
	if err != nil {
		return nil, fmt.Errorf("find builtin role: %w", err)
	}
	if err := s.store.Roles(ctx).Assign(ctx, user.ID, role.ID); err != nil {
		return nil, fmt.Errorf("assign builtin role: %w", err)
	}
	return user, nil
}

// TokenPair is the result of login and refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ExpiresIn reports the access token lifetime in whole seconds, measured
// from now.
func (p TokenPair) ExpiresIn(now time.Time) int64 {
	d := p.AccessExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// Login verifies credentials and mints a fresh token pair. Unknown email
// and wrong password are deliberately indistinguishable; a store outage
// surfaces as ErrUnavailable so callers can tell "wrong credentials" from
// "system down".
func (s *Service) Login(ctx context.Context, email, password string, rememberMe bool) (TokenPair, Principal, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, Principal{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.store.Users(ctx).FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, Principal{}, ErrInvalidCredentials
		}
		return TokenPair{}, Principal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if user.Status != UserStatusActive {
		return TokenPair{}, Principal{}, ErrInvalidCredentials
	}
	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		// Corrupt stored hash; not a credential mismatch.
		return TokenPair{}, Principal{}, err
	}
	if !ok {
		return TokenPair{}, Principal{}, ErrInvalidCredentials
	}

	principal, err := s.Principal(ctx, user.ID)
	if err != nil {
		return TokenPair{}, Principal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	pair, err := s.mintPair(user.ID, rememberMe)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	return pair, principal, nil
}

// Refresh exchanges a valid refresh token for a new pair. Stateless: the
// token's own signature, expiry and class are the whole check. A failed
// refresh is terminal for the session; the caller must re-authenticate.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, Principal, error) {
	claims, err := s.tokens.Verify(refreshToken, TokenClassRefresh)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	principal, err := s.Principal(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, Principal{}, invalidToken("unknown subject")
		}
		return TokenPair{}, Principal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if principal.User.Status != UserStatusActive {
		return TokenPair{}, Principal{}, invalidToken("subject disabled")
	}
	pair, err := s.mintPair(claims.Subject, false)
	if err != nil {
		return TokenPair{}, Principal{}, err
	}
	return pair, principal, nil
}

// Authenticate validates an access token and resolves its principal. Used
// by the HTTP bearer middleware on every protected request.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	claims, err := s.tokens.Verify(accessToken, TokenClassAccess)
	if err != nil {
		return Principal{}, err
	}
	principal, err := s.Principal(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Principal{}, invalidToken("unknown subject")
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if principal.User.Status != UserStatusActive {
		return Principal{}, invalidToken("subject disabled")
	}
	return principal, nil
}

// AssignRole grants a named role to a user.
func (s *Service) AssignRole(ctx context.Context, userID, roleName string) error {
	userID = strings.TrimSpace(userID)
	roleName = strings.TrimSpace(roleName)
	if userID == "" || roleName == "" {
		return fmt.Errorf("%w: user_id and role are required", ErrInvalidInput)
	}
	role, err := s.store.Roles(ctx).FindByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.store.Roles(ctx).Assign(ctx, userID, role.ID)
}

// RemoveRole revokes a named role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID, roleName string) error {
	userID = strings.TrimSpace(userID)
	roleName = strings.TrimSpace(roleName)
	if userID == "" || roleName == "" {
		return fmt.Errorf("%w: user_id and role are required", ErrInvalidInput)
	}
	role, err := s.store.Roles(ctx).FindByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.store.Roles(ctx).Remove(ctx, userID, role.ID)
}

// ListRoles returns the role catalog.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.Roles(ctx).List(ctx)
}

// ListPermissions returns the permission catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.store.Permissions(ctx).List(ctx)
}

// SetRolePermissions replaces a role's grants with the given keys.
func (s *Service) SetRolePermissions(ctx context.Context, roleID string, keys []string) error {
	roleID = strings.TrimSpace(roleID)
	if roleID == "" {
		return fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return s.store.Permissions(ctx).SetForRole(ctx, roleID, dedupe(keys))
}

func (s *Service) mintPair(userID string, rememberMe bool) (TokenPair, error) {
	access, accessExp, err := s.tokens.Issue(userID, TokenClassAccess, false)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokens.Issue(userID, TokenClassRefresh, rememberMe)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}
