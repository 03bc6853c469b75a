package auth

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"menuqr.org/internal/ids"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Session is an authenticated session: the minted token pair plus the user
// it belongs to.
type Session struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"-"`
	User         *User         `json:"user"`
	Tenant       *Tenant       `json:"tenant"`
}

// RegisterInput carries everything needed to provision a tenant with its
// owner account.
type RegisterInput struct {
	TenantName string
	Slug       string
	OwnerName  string
	Email      string
	Password   string
	Phone      string
}

// Service implements the session lifecycle: registration, login, refresh
// rotation and logout.
type Service struct {
	store  Store
	tokens *TokenService
	claims *ClaimService
	clock  func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService builds the session service.
func NewService(store Store, tokens *TokenService, claims *ClaimService, opts ...ServiceOption) *Service {
	s := &Service{store: store, tokens: tokens, claims: claims, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register provisions a new tenant together with its admin owner account and
// immediately opens a session, so a fresh registration can call the API
// without a separate login round-trip.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	if err := validateRegisterInput(in); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock()
	tenant := &Tenant{
		ID:        ids.New(),
		Name:      strings.TrimSpace(in.TenantName),
		Slug:      strings.ToLower(strings.TrimSpace(in.Slug)),
		Email:     normalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &User{
		ID:           ids.New(),
		TenantID:     tenant.ID,
		Name:         strings.TrimSpace(in.OwnerName),
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         RoleAdmin,
		Phone:        strings.TrimSpace(in.Phone),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateTenantWithOwner(ctx, tenant, owner); err != nil {
		return nil, err
	}
	return s.openSession(ctx, owner, tenant)
}

// Login verifies credentials and opens a session. Unknown email, inactive
// account and wrong password all produce the same ErrUnauthorized.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrUnauthorized
	}
	tenant, err := s.store.Tenants().Get(ctx, user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	return s.openSession(ctx, user, tenant)
}

// Refresh rotates a refresh token: the presented token is validated, a fresh
// pair is minted and stored, and only then is the presented token revoked, so
// a storage failure mid-rotation never strands the client without a usable
// credential. A token that is unknown, expired or already revoked yields
// ErrUnauthorized, so each refresh token is usable exactly once.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}
	now := s.clock()
	stored, err := s.store.RefreshTokens().Find(ctx, refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if stored.RevokedAt != nil || !stored.ExpiresAt.After(now) {
		return nil, ErrUnauthorized
	}
	user, err := s.store.Users().Get(ctx, stored.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrUnauthorized
	}
	tenant, err := s.store.Tenants().Get(ctx, user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	sess, err := s.openSession(ctx, user, tenant)
	if err != nil {
		return nil, err
	}
	if err := s.store.RefreshTokens().Revoke(ctx, refreshToken, now); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	return sess, nil
}

// Logout revokes the presented refresh token. When the caller is
// authenticated, every live token of that user is revoked as well, ending
// all of their sessions. Logout never fails on an unknown token.
func (s *Service) Logout(ctx context.Context, refreshToken, userID string) error {
	now := s.clock()
	if refreshToken != "" {
		if err := s.store.RefreshTokens().Revoke(ctx, refreshToken, now); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	if userID != "" {
		if err := s.store.RefreshTokens().RevokeAllForUser(ctx, userID, now); err != nil {
			return fmt.Errorf("revoke user tokens: %w", err)
		}
	}
	return nil
}

// PurgeExpiredTokens removes refresh tokens whose expiry has passed.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.store.RefreshTokens().PurgeExpired(ctx, s.clock())
}

func (s *Service) openSession(ctx context.Context, user *User, tenant *Tenant) (*Session, error) {
	access, err := s.tokens.CreateAccessToken(Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Email:    user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := NewRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.clock()
	if err := s.store.RefreshTokens().Create(ctx, &RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		ExpiresAt: now.Add(s.tokens.RefreshTTL()),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.tokens.AccessTTL(),
		User:         user,
		Tenant:       tenant,
	}, nil
}

func validateRegisterInput(in RegisterInput) error {
	if strings.TrimSpace(in.TenantName) == "" {
		return fmt.Errorf("%w: tenant name is required", ErrInvalidInput)
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: slug must be lowercase letters, digits and hyphens", ErrInvalidInput)
	}
	if strings.TrimSpace(in.OwnerName) == "" {
		return fmt.Errorf("%w: owner name is required", ErrInvalidInput)
	}
	if normalizeEmail(in.Email) == "" || !strings.Contains(in.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
