package auth

import (
	"context"
	"fmt"
	"sort"
	"time"

	"menuqr.org/internal/ids"
)

// Claims whose removal can lock an administrator out of permission
// management. Mutating them for your own account deserves a warning.
var criticalClaims = map[string]bool{
	"users.manage_permissions": true,
	"tenant.edit":              true,
}

const defaultAuditLimit = 50

// ClaimService resolves effective permissions from role defaults and
// per-user overrides, and records every override mutation in the audit trail.
type ClaimService struct {
	store Store
	clock func() time.Time
}

// ClaimOption configures a ClaimService.
type ClaimOption func(*ClaimService)

// WithClaimClock injects a clock for tests.
func WithClaimClock(clock func() time.Time) ClaimOption {
	return func(s *ClaimService) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewClaimService builds a ClaimService backed by the given store.
func NewClaimService(store Store, opts ...ClaimOption) *ClaimService {
	s := &ClaimService{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns every system claim grouped by resource, plus the flat list.
func (s *ClaimService) Catalog(ctx context.Context) (map[string][]Claim, []Claim, error) {
	claims, err := s.store.Claims().All(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load claim catalog: %w", err)
	}
	grouped := make(map[string][]Claim)
	for _, c := range claims {
		grouped[c.Resource] = append(grouped[c.Resource], c)
	}
	return grouped, claims, nil
}

// RoleDefaultClaims returns the claim names a role grants by default.
func (s *ClaimService) RoleDefaultClaims(ctx context.Context, role string) ([]string, error) {
	if !IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	return s.store.Roles().ClaimNamesForRole(ctx, role)
}

// EffectiveClaims computes the user's permission set in two phases: role
// defaults first, then per-user overrides overwriting in both directions.
// The result maps every touched claim name to its effective value; claims
// absent from the map are denied.
func (s *ClaimService) EffectiveClaims(ctx context.Context, userID string) (map[string]bool, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	effective := make(map[string]bool)
	defaults, err := s.store.Roles().ClaimNamesForRole(ctx, user.Role)
	if err != nil {
		return nil, fmt.Errorf("load role defaults: %w", err)
	}
	for _, name := range defaults {
		effective[name] = true
	}

	overrides, err := s.store.Claims().Overrides(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	for _, o := range overrides {
		effective[o.ClaimName] = o.Granted
	}
	return effective, nil
}

// GrantedClaimNames returns the sorted names of claims the user effectively
// holds.
func (s *ClaimService) GrantedClaimNames(ctx context.Context, userID string) ([]string, error) {
	effective, err := s.EffectiveClaims(ctx, userID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(effective))
	for name, granted := range effective {
		if granted {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// HasClaim reports whether the user effectively holds the named claim.
// Resolution failures deny access rather than propagating.
func (s *ClaimService) HasClaim(ctx context.Context, userID, claim string) bool {
	effective, err := s.EffectiveClaims(ctx, userID)
	if err != nil {
		return false
	}
	return effective[claim]
}

// UserClaimsDetailed returns the full per-user permission matrix: every
// system claim with its effective value and source.
func (s *ClaimService) UserClaimsDetailed(ctx context.Context, userID string) ([]UserClaimDetail, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.store.Claims().DetailedForUser(ctx, userID, user.Role)
}

// AuditLog returns the most recent override mutations for a user, newest
// first. A non-positive limit falls back to the default.
func (s *ClaimService) AuditLog(ctx context.Context, userID string, limit int) ([]ClaimAuditRecord, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	return s.store.Claims().AuditLog(ctx, userID, limit)
}

// SetUserClaim upserts one per-user override and appends its audit entry in
// the same transaction. modifiedBy is the acting administrator.
func (s *ClaimService) SetUserClaim(ctx context.Context, userID, claimName string, granted bool, modifiedBy string) error {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	claim, err := s.store.Claims().GetByName(ctx, claimName)
	if err != nil {
		return fmt.Errorf("%w: unknown claim %q", ErrInvalidInput, claimName)
	}

	now := s.clock()
	override := &ClaimOverride{
		UserID:    userID,
		ClaimID:   claim.ID,
		Granted:   granted,
		GrantedBy: modifiedBy,
		GrantedAt: now,
	}
	entry := &ClaimAuditEntry{
		ID:         ids.New(),
		UserID:     userID,
		ClaimID:    claim.ID,
		Action:     auditAction(granted),
		ModifiedBy: modifiedBy,
		TenantID:   user.TenantID,
		NewValue:   granted,
		CreatedAt:  now,
	}
	return s.store.Claims().SetOverride(ctx, override, entry)
}

// SetUserClaims replaces the user's entire override set. Every system claim
// receives an explicit override with the supplied value (absent claims are
// denied), and every claim gets an audit entry, all in a single transaction.
func (s *ClaimService) SetUserClaims(ctx context.Context, userID string, granted map[string]bool, modifiedBy string) error {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	catalog, err := s.store.Claims().All(ctx)
	if err != nil {
		return fmt.Errorf("load claim catalog: %w", err)
	}
	for name := range granted {
		if !claimInCatalog(catalog, name) {
			return fmt.Errorf("%w: unknown claim %q", ErrInvalidInput, name)
		}
	}

	now := s.clock()
	overrides := make([]ClaimOverride, 0, len(catalog))
	entries := make([]*ClaimAuditEntry, 0, len(catalog))
	for _, claim := range catalog {
		value := granted[claim.Name]
		overrides = append(overrides, ClaimOverride{
			UserID:    userID,
			ClaimID:   claim.ID,
			Granted:   value,
			GrantedBy: modifiedBy,
			GrantedAt: now,
		})
		entries = append(entries, &ClaimAuditEntry{
			ID:         ids.New(),
			UserID:     userID,
			ClaimID:    claim.ID,
			Action:     auditAction(value),
			ModifiedBy: modifiedBy,
			TenantID:   user.TenantID,
			NewValue:   value,
			CreatedAt:  now,
		})
	}
	return s.store.Claims().ReplaceOverrides(ctx, overrides, entries)
}

// CanModifyUserClaim warns when an administrator is about to revoke a
// critical claim from their own account. The check is advisory; callers
// decide whether to block.
func (s *ClaimService) CanModifyUserClaim(actorID, targetID, claimName string, granted bool) (bool, string) {
	if actorID == targetID && !granted && criticalClaims[claimName] {
		return false, "removing this claim from your own account may lock you out of permission management"
	}
	return true, ""
}

func auditAction(granted bool) string {
	if granted {
		return AuditActionGranted
	}
	return AuditActionRevoked
}

func claimInCatalog(catalog []Claim, name string) bool {
	for _, c := range catalog {
		if c.Name == name {
			return true
		}
	}
	return false
}
