package auth

import (
	"context"
	"fmt"
	"strings"
)

// RoleService administers role metadata and role-to-claim defaults.
type RoleService struct {
	store Store
}

// NewRoleService builds a RoleService backed by the given store.
func NewRoleService(store Store) *RoleService {
	return &RoleService{store: store}
}

// ListRoles returns every role with claim and user counts, ordered
// admin, manager, staff.
func (s *RoleService) ListRoles(ctx context.Context) ([]RoleSummary, error) {
	return s.store.Roles().List(ctx)
}

// GetRoleWithClaims returns a role's metadata plus its assigned claims.
func (s *RoleService) GetRoleWithClaims(ctx context.Context, name string) (*RoleWithClaims, error) {
	if !IsValidRole(name) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, name)
	}
	role, err := s.store.Roles().Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load role: %w", err)
	}
	claims, err := s.store.Roles().ClaimsForRole(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load role claims: %w", err)
	}
	return &RoleWithClaims{
		RoleSummary: RoleSummary{Role: *role, ClaimCount: len(claims)},
		Claims:      claims,
	}, nil
}

// GetRoleClaimsDetailed returns every system claim annotated with whether
// the role grants it.
func (s *RoleService) GetRoleClaimsDetailed(ctx context.Context, name string) ([]RoleClaimDetail, error) {
	if !IsValidRole(name) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, name)
	}
	catalog, err := s.store.Claims().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load claim catalog: %w", err)
	}
	assigned, err := s.store.Roles().ClaimNamesForRole(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load role claims: %w", err)
	}
	has := make(map[string]bool, len(assigned))
	for _, n := range assigned {
		has[n] = true
	}
	details := make([]RoleClaimDetail, 0, len(catalog))
	for _, c := range catalog {
		details = append(details, RoleClaimDetail{Claim: c, HasClaim: has[c.Name]})
	}
	return details, nil
}

// UpdateRoleClaims replaces the role's default claim set. Claim IDs must all
// exist in the catalog; the swap happens in one transaction so concurrent
// readers never observe a partial set.
func (s *RoleService) UpdateRoleClaims(ctx context.Context, name string, claimIDs []string) error {
	if !IsValidRole(name) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, name)
	}
	catalog, err := s.store.Claims().All(ctx)
	if err != nil {
		return fmt.Errorf("load claim catalog: %w", err)
	}
	known := make(map[string]bool, len(catalog))
	for _, c := range catalog {
		known[c.ID] = true
	}
	deduped := dedupeStrings(claimIDs)
	for _, id := range deduped {
		if !known[id] {
			return fmt.Errorf("%w: unknown claim id %q", ErrInvalidInput, id)
		}
	}
	return s.store.Roles().ReplaceClaims(ctx, name, deduped)
}

// UpdateRoleMetadata applies a partial update to the role's display fields.
// An update naming no fields is rejected.
func (s *RoleService) UpdateRoleMetadata(ctx context.Context, name string, upd RoleMetadataUpdate) (*Role, error) {
	if !IsValidRole(name) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, name)
	}
	if upd.Title == nil && upd.Description == nil && upd.Color == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be blank", ErrInvalidInput)
	}
	return s.store.Roles().UpdateMetadata(ctx, name, upd)
}

// UsersByRole lists the tenant's users holding the given role.
func (s *RoleService) UsersByRole(ctx context.Context, tenantID, name string) ([]User, error) {
	if !IsValidRole(name) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, name)
	}
	return s.store.Users().ListByRole(ctx, tenantID, name)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
