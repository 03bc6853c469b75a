package auth

import (
	"context"
	"time"
)

// Store aggregates the persistence interfaces the auth services depend on.
// The pg package provides the production implementation; tests provide stubs.
type Store interface {
	Tenants() TenantStore
	Users() UserStore
	Roles() RoleStore
	Claims() ClaimStore
	RefreshTokens() RefreshTokenStore

	// CreateTenantWithOwner persists a new tenant and its owner user
	// atomically. Either both rows exist afterwards or neither does.
	CreateTenantWithOwner(ctx context.Context, tenant *Tenant, owner *User) error
}

// TenantStore persists tenants.
type TenantStore interface {
	Get(ctx context.Context, id string) (*Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
	Update(ctx context.Context, id string, upd TenantUpdate) (*Tenant, error)
}

// UserStore persists users.
type UserStore interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ListByTenant(ctx context.Context, tenantID string) ([]User, error)
	ListByRole(ctx context.Context, tenantID, role string) ([]User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id string) error
}

// RoleStore persists role metadata and role-to-claim assignments.
type RoleStore interface {
	List(ctx context.Context) ([]RoleSummary, error)
	Get(ctx context.Context, name string) (*Role, error)
	ClaimsForRole(ctx context.Context, name string) ([]Claim, error)
	ClaimNamesForRole(ctx context.Context, name string) ([]string, error)
	// ReplaceClaims swaps the full claim set of a role in one transaction.
	ReplaceClaims(ctx context.Context, name string, claimIDs []string) error
	UpdateMetadata(ctx context.Context, name string, upd RoleMetadataUpdate) (*Role, error)
}

// ClaimStore persists the claim catalog, per-user overrides and the audit
// trail. Override mutations write their audit entry in the same transaction.
type ClaimStore interface {
	All(ctx context.Context) ([]Claim, error)
	GetByName(ctx context.Context, name string) (*Claim, error)
	Overrides(ctx context.Context, userID string) ([]OverrideValue, error)
	// SetOverride upserts one override and appends the audit entry
	// atomically. entry.PreviousValue is filled from the prior override.
	SetOverride(ctx context.Context, o *ClaimOverride, entry *ClaimAuditEntry) error
	// ReplaceOverrides applies a full override set in a single transaction,
	// one override plus one audit entry per system claim.
	ReplaceOverrides(ctx context.Context, overrides []ClaimOverride, entries []*ClaimAuditEntry) error
	DetailedForUser(ctx context.Context, userID, role string) ([]UserClaimDetail, error)
	AuditLog(ctx context.Context, userID string, limit int) ([]ClaimAuditRecord, error)
}

// RefreshTokenStore persists opaque refresh tokens keyed by their raw value.
type RefreshTokenStore interface {
	Create(ctx context.Context, t *RefreshToken) error
	Find(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, token string, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
