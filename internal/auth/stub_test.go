package auth

import (
	"context"
	"time"
)

// stubStore wires function fields into the Store interfaces so each test
// supplies only the behavior it needs.
type stubStore struct {
	tenants stubTenantStore
	users   stubUserStore
	roles   stubRoleStore
	claims  stubClaimStore
	tokens  stubRefreshTokenStore

	createTenantWithOwnerFn func(ctx context.Context, tenant *Tenant, owner *User) error
}

func (s *stubStore) Tenants() TenantStore             { return &s.tenants }
func (s *stubStore) Users() UserStore                 { return &s.users }
func (s *stubStore) Roles() RoleStore                 { return &s.roles }
func (s *stubStore) Claims() ClaimStore               { return &s.claims }
func (s *stubStore) RefreshTokens() RefreshTokenStore { return &s.tokens }

func (s *stubStore) CreateTenantWithOwner(ctx context.Context, tenant *Tenant, owner *User) error {
	if s.createTenantWithOwnerFn != nil {
		return s.createTenantWithOwnerFn(ctx, tenant, owner)
	}
	return nil
}

type stubTenantStore struct {
	getFn       func(ctx context.Context, id string) (*Tenant, error)
	getBySlugFn func(ctx context.Context, slug string) (*Tenant, error)
	updateFn    func(ctx context.Context, id string, upd TenantUpdate) (*Tenant, error)
}

func (s *stubTenantStore) Get(ctx context.Context, id string) (*Tenant, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *stubTenantStore) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	if s.getBySlugFn != nil {
		return s.getBySlugFn(ctx, slug)
	}
	return nil, ErrNotFound
}

func (s *stubTenantStore) Update(ctx context.Context, id string, upd TenantUpdate) (*Tenant, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, upd)
	}
	return nil, ErrNotFound
}

type stubUserStore struct {
	getFn        func(ctx context.Context, id string) (*User, error)
	getByEmailFn func(ctx context.Context, email string) (*User, error)
	listFn       func(ctx context.Context, tenantID string) ([]User, error)
	listByRoleFn func(ctx context.Context, tenantID, role string) ([]User, error)
	createFn     func(ctx context.Context, u *User) error
	updateFn     func(ctx context.Context, id string, upd UserUpdate) (*User, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (s *stubUserStore) Get(ctx context.Context, id string) (*User, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, ErrNotFound
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	if s.getByEmailFn != nil {
		return s.getByEmailFn(ctx, email)
	}
	return nil, ErrNotFound
}

func (s *stubUserStore) ListByTenant(ctx context.Context, tenantID string) ([]User, error) {
	if s.listFn != nil {
		return s.listFn(ctx, tenantID)
	}
	return nil, nil
}

func (s *stubUserStore) ListByRole(ctx context.Context, tenantID, role string) ([]User, error) {
	if s.listByRoleFn != nil {
		return s.listByRoleFn(ctx, tenantID, role)
	}
	return nil, nil
}

func (s *stubUserStore) Create(ctx context.Context, u *User) error {
	if s.createFn != nil {
		return s.createFn(ctx, u)
	}
	return nil
}

func (s *stubUserStore) Update(ctx context.Context, id string, upd UserUpdate) (*User, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, upd)
	}
	return nil, ErrNotFound
}

func (s *stubUserStore) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type stubRoleStore struct {
	listFn           func(ctx context.Context) ([]RoleSummary, error)
	getFn            func(ctx context.Context, name string) (*Role, error)
	claimsForRoleFn  func(ctx context.Context, name string) ([]Claim, error)
	claimNamesFn     func(ctx context.Context, name string) ([]string, error)
	replaceClaimsFn  func(ctx context.Context, name string, claimIDs []string) error
	updateMetadataFn func(ctx context.Context, name string, upd RoleMetadataUpdate) (*Role, error)
}

func (s *stubRoleStore) List(ctx context.Context) ([]RoleSummary, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubRoleStore) Get(ctx context.Context, name string) (*Role, error) {
	if s.getFn != nil {
		return s.getFn(ctx, name)
	}
	return nil, ErrNotFound
}

func (s *stubRoleStore) ClaimsForRole(ctx context.Context, name string) ([]Claim, error) {
	if s.claimsForRoleFn != nil {
		return s.claimsForRoleFn(ctx, name)
	}
	return nil, nil
}

func (s *stubRoleStore) ClaimNamesForRole(ctx context.Context, name string) ([]string, error) {
	if s.claimNamesFn != nil {
		return s.claimNamesFn(ctx, name)
	}
	return nil, nil
}

func (s *stubRoleStore) ReplaceClaims(ctx context.Context, name string, claimIDs []string) error {
	if s.replaceClaimsFn != nil {
		return s.replaceClaimsFn(ctx, name, claimIDs)
	}
	return nil
}

func (s *stubRoleStore) UpdateMetadata(ctx context.Context, name string, upd RoleMetadataUpdate) (*Role, error) {
	if s.updateMetadataFn != nil {
		return s.updateMetadataFn(ctx, name, upd)
	}
	return nil, ErrNotFound
}

type stubClaimStore struct {
	allFn              func(ctx context.Context) ([]Claim, error)
	getByNameFn        func(ctx context.Context, name string) (*Claim, error)
	overridesFn        func(ctx context.Context, userID string) ([]OverrideValue, error)
	setOverrideFn      func(ctx context.Context, o *ClaimOverride, entry *ClaimAuditEntry) error
	replaceOverridesFn func(ctx context.Context, overrides []ClaimOverride, entries []*ClaimAuditEntry) error
	detailedFn         func(ctx context.Context, userID, role string) ([]UserClaimDetail, error)
	auditLogFn         func(ctx context.Context, userID string, limit int) ([]ClaimAuditRecord, error)
}

func (s *stubClaimStore) All(ctx context.Context) ([]Claim, error) {
	if s.allFn != nil {
		return s.allFn(ctx)
	}
	return nil, nil
}

func (s *stubClaimStore) GetByName(ctx context.Context, name string) (*Claim, error) {
	if s.getByNameFn != nil {
		return s.getByNameFn(ctx, name)
	}
	return nil, ErrNotFound
}

func (s *stubClaimStore) Overrides(ctx context.Context, userID string) ([]OverrideValue, error) {
	if s.overridesFn != nil {
		return s.overridesFn(ctx, userID)
	}
	return nil, nil
}

func (s *stubClaimStore) SetOverride(ctx context.Context, o *ClaimOverride, entry *ClaimAuditEntry) error {
	if s.setOverrideFn != nil {
		return s.setOverrideFn(ctx, o, entry)
	}
	return nil
}

func (s *stubClaimStore) ReplaceOverrides(ctx context.Context, overrides []ClaimOverride, entries []*ClaimAuditEntry) error {
	if s.replaceOverridesFn != nil {
		return s.replaceOverridesFn(ctx, overrides, entries)
	}
	return nil
}

func (s *stubClaimStore) DetailedForUser(ctx context.Context, userID, role string) ([]UserClaimDetail, error) {
	if s.detailedFn != nil {
		return s.detailedFn(ctx, userID, role)
	}
	return nil, nil
}

func (s *stubClaimStore) AuditLog(ctx context.Context, userID string, limit int) ([]ClaimAuditRecord, error) {
	if s.auditLogFn != nil {
		return s.auditLogFn(ctx, userID, limit)
	}
	return nil, nil
}

type stubRefreshTokenStore struct {
	createFn    func(ctx context.Context, t *RefreshToken) error
	findFn      func(ctx context.Context, token string) (*RefreshToken, error)
	revokeFn    func(ctx context.Context, token string, at time.Time) error
	revokeAllFn func(ctx context.Context, userID string, at time.Time) error
	purgeFn     func(ctx context.Context, before time.Time) (int64, error)
}

func (s *stubRefreshTokenStore) Create(ctx context.Context, t *RefreshToken) error {
	if s.createFn != nil {
		return s.createFn(ctx, t)
	}
	return nil
}

func (s *stubRefreshTokenStore) Find(ctx context.Context, token string) (*RefreshToken, error) {
	if s.findFn != nil {
		return s.findFn(ctx, token)
	}
	return nil, ErrNotFound
}

func (s *stubRefreshTokenStore) Revoke(ctx context.Context, token string, at time.Time) error {
	if s.revokeFn != nil {
		return s.revokeFn(ctx, token, at)
	}
	return nil
}

func (s *stubRefreshTokenStore) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	if s.revokeAllFn != nil {
		return s.revokeAllFn(ctx, userID, at)
	}
	return nil
}

func (s *stubRefreshTokenStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if s.purgeFn != nil {
		return s.purgeFn(ctx, before)
	}
	return 0, nil
}
