package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"menuqr.org/internal/ids"
)

// DirectoryService administers the tenant record and its staff accounts.
type DirectoryService struct {
	store Store
	clock func() time.Time
}

// NewDirectoryService builds a DirectoryService backed by the given store.
func NewDirectoryService(store Store) *DirectoryService {
	return &DirectoryService{store: store, clock: time.Now}
}

// GetTenant loads a tenant by id.
func (s *DirectoryService) GetTenant(ctx context.Context, id string) (*Tenant, error) {
	return s.store.Tenants().Get(ctx, id)
}

// GetTenantBySlug loads a tenant by its public slug.
func (s *DirectoryService) GetTenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrNotFound
	}
	return s.store.Tenants().GetBySlug(ctx, slug)
}

// UpdateTenant applies a partial update to tenant display fields.
func (s *DirectoryService) UpdateTenant(ctx context.Context, id string, upd TenantUpdate) (*Tenant, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be blank", ErrInvalidInput)
	}
	return s.store.Tenants().Update(ctx, id, upd)
}

// ListUsers lists the tenant's staff accounts.
func (s *DirectoryService) ListUsers(ctx context.Context, tenantID string) ([]User, error) {
	return s.store.Users().ListByTenant(ctx, tenantID)
}

// GetUser loads a user, enforcing tenant scope.
func (s *DirectoryService) GetUser(ctx context.Context, tenantID, userID string) (*User, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return user, nil
}

// CreateUser provisions a staff account inside the tenant.
func (s *DirectoryService) CreateUser(ctx context.Context, tenantID, name, email, password, role, phone string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if !IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.clock()
	user := &User{
		ID:           ids.New(),
		TenantID:     tenantID,
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Phone:        strings.TrimSpace(phone),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a partial update to a staff account, enforcing tenant
// scope and role validity. A password change is hashed before storage.
func (s *DirectoryService) UpdateUser(ctx context.Context, tenantID, userID string, upd UserUpdate) (*User, error) {
	if _, err := s.GetUser(ctx, tenantID, userID); err != nil {
		return nil, err
	}
	if upd.Role != nil && !IsValidRole(*upd.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *upd.Role)
	}
	if upd.Email != nil {
		normalized := normalizeEmail(*upd.Email)
		if normalized == "" || !strings.Contains(normalized, "@") {
			return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
		}
		upd.Email = &normalized
	}
	if upd.Password != nil {
		if len(*upd.Password) < 8 {
			return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
		}
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		upd.Password = &hash
	}
	return s.store.Users().Update(ctx, userID, upd)
}

// DeleteUser removes a staff account. Users cannot delete themselves.
func (s *DirectoryService) DeleteUser(ctx context.Context, tenantID, actorID, userID string) error {
	if actorID == userID {
		return fmt.Errorf("%w: cannot delete your own account", ErrInvalidInput)
	}
	if _, err := s.GetUser(ctx, tenantID, userID); err != nil {
		return err
	}
	return s.store.Users().Delete(ctx, userID)
}
