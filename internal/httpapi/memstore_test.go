package httpapi

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"menuqr.org/internal/auth"
	"menuqr.org/internal/menu"
)

// memStore is an in-memory implementation of the auth and menu stores for
// end-to-end handler tests.
type memStore struct {
	mu sync.Mutex

	tenants    map[string]*auth.Tenant
	users      map[string]*auth.User
	roles      map[string]*auth.Role
	claims     []auth.Claim
	roleClaims map[string]map[string]bool // role -> claim id -> assigned
	overrides  map[string]map[string]*auth.ClaimOverride
	auditLog   []auth.ClaimAuditEntry
	tokens     map[string]*auth.RefreshToken

	categories map[string]*menu.Category
	products   map[string]*menu.Product
	orders     map[string]*menu.Order
}

func newMemStore() *memStore {
	s := &memStore{
		tenants:    make(map[string]*auth.Tenant),
		users:      make(map[string]*auth.User),
		roles:      make(map[string]*auth.Role),
		roleClaims: make(map[string]map[string]bool),
		overrides:  make(map[string]map[string]*auth.ClaimOverride),
		tokens:     make(map[string]*auth.RefreshToken),
		categories: make(map[string]*menu.Category),
		products:   make(map[string]*menu.Product),
		orders:     make(map[string]*menu.Order),
	}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, role := range []string{auth.RoleAdmin, auth.RoleManager, auth.RoleStaff} {
		s.roles[role] = &auth.Role{
			Name: role, Title: strings.ToUpper(role[:1]) + role[1:], IsSystem: true,
			CreatedAt: now, UpdatedAt: now,
		}
		s.roleClaims[role] = make(map[string]bool)
	}
	s.claims = []auth.Claim{
		{ID: "cl-uv", Name: "users.view", Resource: "users", Action: "view"},
		{ID: "cl-uc", Name: "users.create", Resource: "users", Action: "create"},
		{ID: "cl-ue", Name: "users.edit", Resource: "users", Action: "edit"},
		{ID: "cl-ud", Name: "users.delete", Resource: "users", Action: "delete"},
		{ID: "cl-up", Name: "users.manage_permissions", Resource: "users", Action: "manage_permissions"},
		{ID: "cl-tv", Name: "tenant.view", Resource: "tenant", Action: "view"},
		{ID: "cl-te", Name: "tenant.edit", Resource: "tenant", Action: "edit"},
		{ID: "cl-cv", Name: "categories.view", Resource: "categories", Action: "view"},
		{ID: "cl-cc", Name: "categories.create", Resource: "categories", Action: "create"},
		{ID: "cl-ce", Name: "categories.edit", Resource: "categories", Action: "edit"},
		{ID: "cl-cd", Name: "categories.delete", Resource: "categories", Action: "delete"},
		{ID: "cl-pv", Name: "products.view", Resource: "products", Action: "view"},
		{ID: "cl-pc", Name: "products.create", Resource: "products", Action: "create"},
		{ID: "cl-pe", Name: "products.edit", Resource: "products", Action: "edit"},
		{ID: "cl-pd", Name: "products.delete", Resource: "products", Action: "delete"},
		{ID: "cl-ov", Name: "orders.view", Resource: "orders", Action: "view"},
		{ID: "cl-oc", Name: "orders.create", Resource: "orders", Action: "create"},
		{ID: "cl-oe", Name: "orders.edit", Resource: "orders", Action: "edit"},
	}
	// Role defaults mirror the seed data: admin holds everything, manager
	// day-to-day management, staff read plus order handling.
	for _, c := range s.claims {
		s.roleClaims[auth.RoleAdmin][c.ID] = true
	}
	for _, name := range []string{
		"users.view", "tenant.view",
		"categories.view", "categories.create", "categories.edit", "categories.delete",
		"products.view", "products.create", "products.edit", "products.delete",
		"orders.view", "orders.create", "orders.edit",
	} {
		s.roleClaims[auth.RoleManager][s.claimIDByName(name)] = true
	}
	for _, name := range []string{
		"categories.view", "products.view", "orders.view", "orders.create", "orders.edit",
	} {
		s.roleClaims[auth.RoleStaff][s.claimIDByName(name)] = true
	}
	return s
}

func (s *memStore) claimIDByName(name string) string {
	for _, c := range s.claims {
		if c.Name == name {
			return c.ID
		}
	}
	return ""
}

func (s *memStore) claimByID(id string) *auth.Claim {
	for i := range s.claims {
		if s.claims[i].ID == id {
			return &s.claims[i]
		}
	}
	return nil
}

func (s *memStore) Tenants() auth.TenantStore             { return (*memTenants)(s) }
func (s *memStore) Users() auth.UserStore                 { return (*memUsers)(s) }
func (s *memStore) Roles() auth.RoleStore                 { return (*memRoles)(s) }
func (s *memStore) Claims() auth.ClaimStore               { return (*memClaims)(s) }
func (s *memStore) RefreshTokens() auth.RefreshTokenStore { return (*memTokens)(s) }

func (s *memStore) CreateTenantWithOwner(ctx context.Context, tenant *auth.Tenant, owner *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == tenant.Slug {
			return auth.ErrSlugTaken
		}
	}
	for _, u := range s.users {
		if u.Email == owner.Email {
			return auth.ErrEmailTaken
		}
	}
	t := *tenant
	u := *owner
	s.tenants[t.ID] = &t
	s.users[u.ID] = &u
	return nil
}

type memTenants memStore

func (s *memTenants) Get(ctx context.Context, id string) (*auth.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tenants[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, auth.ErrNotFound
}

func (s *memTenants) GetBySlug(ctx context.Context, slug string) (*auth.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if t.Slug == slug {
			copied := *t
			return &copied, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *memTenants) Update(ctx context.Context, id string, upd auth.TenantUpdate) (*auth.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Phone != nil {
		t.Phone = *upd.Phone
	}
	if upd.WhatsAppNumber != nil {
		t.WhatsAppNumber = *upd.WhatsAppNumber
	}
	if upd.LogoURL != nil {
		t.LogoURL = *upd.LogoURL
	}
	if upd.ColorTheme != nil {
		t.ColorTheme = *upd.ColorTheme
	}
	if upd.Currencies != nil {
		t.Currencies = upd.Currencies
	}
	copied := *t
	return &copied, nil
}

type memUsers memStore

func (s *memUsers) Get(ctx context.Context, id string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, auth.ErrNotFound
}

func (s *memUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *memUsers) ListByTenant(ctx context.Context, tenantID string) ([]auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []auth.User
	for _, u := range s.users {
		if u.TenantID == tenantID {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memUsers) ListByRole(ctx context.Context, tenantID, role string) ([]auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []auth.User
	for _, u := range s.users {
		if u.TenantID == tenantID && u.Role == role {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *memUsers) Create(ctx context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return auth.ErrEmailTaken
		}
	}
	copied := *u
	s.users[u.ID] = &copied
	return nil
}

func (s *memUsers) Update(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Password != nil {
		u.PasswordHash = *upd.Password
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	copied := *u
	return &copied, nil
}

func (s *memUsers) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return auth.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type memRoles memStore

func (s *memRoles) List(ctx context.Context) ([]auth.RoleSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []auth.RoleSummary
	for _, name := range []string{auth.RoleAdmin, auth.RoleManager, auth.RoleStaff} {
		role := s.roles[name]
		users := 0
		for _, u := range s.users {
			if u.Role == name {
				users++
			}
		}
		result = append(result, auth.RoleSummary{
			Role:       *role,
			ClaimCount: len(s.roleClaims[name]),
			UserCount:  users,
		})
	}
	return result, nil
}

func (s *memRoles) Get(ctx context.Context, name string) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.roles[name]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, auth.ErrNotFound
}

func (s *memRoles) ClaimsForRole(ctx context.Context, name string) ([]auth.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []auth.Claim
	for _, c := range s.claims {
		if s.roleClaims[name][c.ID] {
			result = append(result, c)
		}
	}
	return result, nil
}

func (s *memRoles) ClaimNamesForRole(ctx context.Context, name string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []string
	for _, c := range s.claims {
		if s.roleClaims[name][c.ID] {
			result = append(result, c.Name)
		}
	}
	return result, nil
}

func (s *memRoles) ReplaceClaims(ctx context.Context, name string, claimIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]bool, len(claimIDs))
	for _, id := range claimIDs {
		next[id] = true
	}
	s.roleClaims[name] = next
	return nil
}

func (s *memRoles) UpdateMetadata(ctx context.Context, name string, upd auth.RoleMetadataUpdate) (*auth.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[name]
	if !ok {
		return nil, auth.ErrNotFound
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.Color != nil {
		r.Color = *upd.Color
	}
	copied := *r
	return &copied, nil
}

type memClaims memStore

func (s *memClaims) All(ctx context.Context) ([]auth.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]auth.Claim(nil), s.claims...), nil
}

func (s *memClaims) GetByName(ctx context.Context, name string) (*auth.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.claims {
		if c.Name == name {
			copied := c
			return &copied, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (s *memClaims) Overrides(ctx context.Context, userID string) ([]auth.OverrideValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []auth.OverrideValue
	for claimID, o := range s.overrides[userID] {
		c := (*memStore)(s).claimByID(claimID)
		if c == nil {
			continue
		}
		result = append(result, auth.OverrideValue{ClaimName: c.Name, Granted: o.Granted})
	}
	return result, nil
}

func (s *memClaims) SetOverride(ctx context.Context, o *auth.ClaimOverride, entry *auth.ClaimAuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.overrides[o.UserID] == nil {
		s.overrides[o.UserID] = make(map[string]*auth.ClaimOverride)
	}
	if prev, ok := s.overrides[o.UserID][o.ClaimID]; ok {
		v := prev.Granted
		entry.PreviousValue = &v
	}
	copied := *o
	s.overrides[o.UserID][o.ClaimID] = &copied
	s.auditLog = append(s.auditLog, *entry)
	return nil
}

func (s *memClaims) ReplaceOverrides(ctx context.Context, overrides []auth.ClaimOverride, entries []*auth.ClaimAuditEntry) error {
	for i := range overrides {
		if err := s.SetOverride(ctx, &overrides[i], entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *memClaims) DetailedForUser(ctx context.Context, userID, role string) ([]auth.UserClaimDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []auth.UserClaimDetail
	for _, c := range s.claims {
		d := auth.UserClaimDetail{Claim: c}
		if o, ok := s.overrides[userID][c.ID]; ok {
			d.HasClaim = o.Granted
			d.Source = auth.ClaimSourceOverride
			d.GrantedBy = o.GrantedBy
			at := o.GrantedAt
			d.GrantedAt = &at
		} else if s.roleClaims[role][c.ID] {
			d.HasClaim = true
			d.Source = auth.ClaimSourceRoleDefault
		} else {
			d.Source = auth.ClaimSourceNone
		}
		result = append(result, d)
	}
	return result, nil
}

func (s *memClaims) AuditLog(ctx context.Context, userID string, limit int) ([]auth.ClaimAuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []auth.ClaimAuditRecord
	for i := len(s.auditLog) - 1; i >= 0 && len(result) < limit; i-- {
		entry := s.auditLog[i]
		if entry.UserID != userID {
			continue
		}
		rec := auth.ClaimAuditRecord{ClaimAuditEntry: entry}
		if c := (*memStore)(s).claimByID(entry.ClaimID); c != nil {
			rec.ClaimName = c.Name
		}
		result = append(result, rec)
	}
	return result, nil
}

type memTokens memStore

func (s *memTokens) Create(ctx context.Context, t *auth.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	s.tokens[t.Token] = &copied
	return nil
}

func (s *memTokens) Find(ctx context.Context, token string) (*auth.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[token]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, auth.ErrNotFound
}

func (s *memTokens) Revoke(ctx context.Context, token string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[token]; ok && t.RevokedAt == nil {
		t.RevokedAt = &at
	}
	return nil
}

func (s *memTokens) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &at
		}
	}
	return nil
}

func (s *memTokens) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for token, t := range s.tokens {
		if t.ExpiresAt.Before(before) {
			delete(s.tokens, token)
			n++
		}
	}
	return n, nil
}

// menu.Store implementation

func (s *memStore) ListCategories(ctx context.Context, tenantID string) ([]menu.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []menu.Category
	for _, c := range s.categories {
		if c.TenantID == tenantID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (s *memStore) GetCategory(ctx context.Context, tenantID, id string) (*menu.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[id]; ok && c.TenantID == tenantID {
		copied := *c
		return &copied, nil
	}
	return nil, menu.ErrNotFound
}

func (s *memStore) CreateCategory(ctx context.Context, c *menu.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *c
	s.categories[c.ID] = &copied
	return nil
}

func (s *memStore) UpdateCategory(ctx context.Context, tenantID, id string, upd menu.CategoryUpdate) (*menu.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.TenantID != tenantID {
		return nil, menu.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.SortOrder != nil {
		c.SortOrder = *upd.SortOrder
	}
	if upd.IsActive != nil {
		c.IsActive = *upd.IsActive
	}
	copied := *c
	return &copied, nil
}

func (s *memStore) DeleteCategory(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.TenantID != tenantID {
		return menu.ErrNotFound
	}
	delete(s.categories, id)
	for pid, p := range s.products {
		if p.CategoryID == id {
			delete(s.products, pid)
		}
	}
	return nil
}

func (s *memStore) ListProducts(ctx context.Context, tenantID, categoryID string) ([]menu.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []menu.Product
	for _, p := range s.products {
		if p.TenantID != tenantID {
			continue
		}
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SortOrder < result[j].SortOrder })
	return result, nil
}

func (s *memStore) GetProduct(ctx context.Context, tenantID, id string) (*menu.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok && p.TenantID == tenantID {
		copied := *p
		return &copied, nil
	}
	return nil, menu.ErrNotFound
}

func (s *memStore) CreateProduct(ctx context.Context, p *menu.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *p
	s.products[p.ID] = &copied
	return nil
}

func (s *memStore) UpdateProduct(ctx context.Context, tenantID, id string, upd menu.ProductUpdate) (*menu.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, menu.ErrNotFound
	}
	if upd.CategoryID != nil {
		p.CategoryID = *upd.CategoryID
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.ImageURL != nil {
		p.ImageURL = *upd.ImageURL
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Currency != nil {
		p.Currency = *upd.Currency
	}
	if upd.Variants != nil {
		p.Variants = upd.Variants
	}
	if upd.IsAvailable != nil {
		p.IsAvailable = *upd.IsAvailable
	}
	if upd.SortOrder != nil {
		p.SortOrder = *upd.SortOrder
	}
	copied := *p
	return &copied, nil
}

func (s *memStore) DeleteProduct(ctx context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok || p.TenantID != tenantID {
		return menu.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *memStore) ListOrders(ctx context.Context, tenantID, status string) ([]menu.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []menu.Order
	for _, o := range s.orders {
		if o.TenantID != tenantID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		result = append(result, *o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *memStore) GetOrder(ctx context.Context, tenantID, id string) (*menu.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok && o.TenantID == tenantID {
		copied := *o
		return &copied, nil
	}
	return nil, menu.ErrNotFound
}

func (s *memStore) CreateOrder(ctx context.Context, o *menu.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *o
	s.orders[o.ID] = &copied
	return nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, tenantID, id, status string, at time.Time) (*menu.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, menu.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = at
	copied := *o
	return &copied, nil
}
