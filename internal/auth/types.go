package auth

import "time"

// Role names are a fixed enumeration. Custom roles may appear in storage one
// day; every endpoint that accepts a role parameter rejects anything outside
// this set.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// IsValidRole reports whether name belongs to the fixed role enumeration.
func IsValidRole(name string) bool {
	switch name {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// Tenant is the isolation boundary: all business data and users belong to
// exactly one tenant.
type Tenant struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone,omitempty"`
	WhatsAppNumber string    `json:"whatsapp_number,omitempty"`
	LogoURL        string    `json:"logo_url,omitempty"`
	ColorTheme     string    `json:"color_theme,omitempty"`
	Currencies     []string  `json:"currencies,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is a staff account scoped to a single tenant.
type User struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Role carries mutable display metadata for one of the fixed role names.
// Roles are global definitions, not per-tenant rows.
type Role struct {
	Name        string    `json:"role"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	IsSystem    bool      `json:"is_system_role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleSummary is a role annotated with aggregate counts for listings.
type RoleSummary struct {
	Role
	ClaimCount int `json:"claim_count"`
	UserCount  int `json:"user_count"`
}

// RoleWithClaims is the detail view of a role: metadata plus assigned claims.
type RoleWithClaims struct {
	RoleSummary
	Claims []Claim `json:"claims"`
}

// Claim is an atomic named permission identified by resource + action.
// Claims are seeded, not created through the API.
type Claim struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// RoleClaimDetail annotates every system claim with whether the role grants
// it, for building an editable permission matrix.
type RoleClaimDetail struct {
	Claim
	HasClaim bool `json:"has_claim"`
}

// Override sources reported by UserClaimDetail.
const (
	ClaimSourceRoleDefault = "role_default"
	ClaimSourceOverride    = "override"
	ClaimSourceNone        = "none"
)

// UserClaimDetail is the per-user permission matrix row: the claim, the
// effective value and where it came from.
type UserClaimDetail struct {
	Claim
	HasClaim  bool       `json:"has_claim"`
	Source    string     `json:"source"`
	GrantedBy string     `json:"granted_by,omitempty"`
	GrantedAt *time.Time `json:"granted_at,omitempty"`
}

// ClaimOverride is a per-user exception to role defaults. The granted value
// takes precedence over the role default in both directions.
type ClaimOverride struct {
	UserID    string    `json:"user_id"`
	ClaimID   string    `json:"claim_id"`
	Granted   bool      `json:"granted"`
	GrantedBy string    `json:"granted_by"`
	GrantedAt time.Time `json:"granted_at"`
}

// OverrideValue is an override joined with its claim name, as consumed by the
// effective-claims merge.
type OverrideValue struct {
	ClaimName string
	Granted   bool
}

// Audit actions recorded for override mutations.
const (
	AuditActionGranted = "granted"
	AuditActionRevoked = "revoked"
)

// ClaimAuditEntry is one append-only record of an override mutation.
// PreviousValue is nil when no prior override existed for the pair.
type ClaimAuditEntry struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ClaimID       string    `json:"claim_id"`
	Action        string    `json:"action"`
	ModifiedBy    string    `json:"modified_by"`
	TenantID      string    `json:"tenant_id"`
	PreviousValue *bool     `json:"previous_value"`
	NewValue      bool      `json:"new_value"`
	CreatedAt     time.Time `json:"created_at"`
}

// ClaimAuditRecord is an audit entry joined with display fields for the admin UI.
type ClaimAuditRecord struct {
	ClaimAuditEntry
	ClaimName        string `json:"claim_name"`
	ClaimDescription string `json:"claim_description,omitempty"`
	ModifiedByName   string `json:"modified_by_name,omitempty"`
	ModifiedByEmail  string `json:"modified_by_email,omitempty"`
}

// RefreshToken is a persisted opaque credential. It is valid iff RevokedAt is
// nil and the expiry lies in the future; multiple live tokens per user are
// permitted for multi-device sessions.
type RefreshToken struct {
	Token     string     `json:"-"`
	UserID    string     `json:"user_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TenantUpdate is a partial update of tenant display fields.
type TenantUpdate struct {
	Name           *string
	Phone          *string
	WhatsAppNumber *string
	LogoURL        *string
	ColorTheme     *string
	Currencies     []string
}

// UserUpdate is a partial update of a user record.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	Phone    *string
	IsActive *bool
}

// RoleMetadataUpdate is a partial update of role display metadata.
type RoleMetadataUpdate struct {
	Title       *string
	Description *string
	Color       *string
}
