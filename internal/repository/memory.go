package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/query"
)

// In-memory repositories for tests and local runs without PostgreSQL. They
// store copies so callers cannot mutate stored rows.

// MemoryTenantRepository is an in-memory TenantRepository
type MemoryTenantRepository struct {
	mu      sync.RWMutex
	nextID  int64
	tenants map[int64]*domain.Tenant
}

// NewMemoryTenantRepository creates an empty MemoryTenantRepository
func NewMemoryTenantRepository() *MemoryTenantRepository {
	return &MemoryTenantRepository{tenants: make(map[int64]*domain.Tenant)}
}

func (r *MemoryTenantRepository) Create(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tenants {
		if existing.Slug == t.Slug {
			return &domain.ConflictError{Field: "slug", Value: t.Slug}
		}
		if strings.EqualFold(existing.Name, t.Name) {
			return &domain.ConflictError{Field: "name", Value: t.Name}
		}
	}
	r.nextID++
	t.ID = r.nextID
	copied := *t
	r.tenants[t.ID] = &copied
	return nil
}

func (r *MemoryTenantRepository) GetByID(_ context.Context, id int64) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tenants[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (r *MemoryTenantRepository) GetBySlug(_ context.Context, slug string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if t.Slug == slug {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryTenantRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	t, err := r.GetBySlug(ctx, slug)
	return t != nil, err
}

func (r *MemoryTenantRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.tenants {
		if strings.EqualFold(t.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryTenantRepository) Update(_ context.Context, t *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[t.ID]; !ok {
		return domain.NewNotFoundError("Tenant", t.ID)
	}
	t.UpdatedAt = time.Now().UTC()
	copied := *t
	r.tenants[t.ID] = &copied
	return nil
}

// MemoryUserRepository is an in-memory UserRepository
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]*domain.User
}

// NewMemoryUserRepository creates an empty MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[int64]*domain.User)}
}

func copyUser(u *domain.User) *domain.User {
	copied := *u
	copied.Roles = append([]domain.Role(nil), u.Roles...)
	return &copied
}

func (r *MemoryUserRepository) live(tenantID int64) []*domain.User {
	out := make([]*domain.User, 0)
	for _, u := range r.users {
		if u.TenantID == tenantID && !u.IsDeleted() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryUserRepository) findEmail(tenantID int64, email string) *domain.User {
	for _, u := range r.live(tenantID) {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findEmail(u.TenantID, u.Email) != nil {
		return &domain.ConflictError{Field: "email", Value: u.Email}
	}
	r.nextID++
	u.ID = r.nextID
	r.users[u.ID] = copyUser(u)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, tenantID, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok || u.TenantID != tenantID || u.IsDeleted() {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, tenantID int64, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u := r.findEmail(tenantID, email); u != nil {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) ExistsByEmail(ctx context.Context, tenantID int64, email string) (bool, error) {
	u, err := r.GetByEmail(ctx, tenantID, email)
	return u != nil, err
}

func (r *MemoryUserRepository) List(_ context.Context, tenantID int64, search string, page, size int) ([]*domain.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search = strings.ToLower(strings.TrimSpace(search))
	matched := make([]*domain.User, 0)
	for _, u := range r.live(tenantID) {
		if search == "" ||
			strings.Contains(strings.ToLower(u.FullName()), search) ||
			strings.Contains(strings.ToLower(u.Email), search) {
			matched = append(matched, copyUser(u))
		}
	}
	total := int64(len(matched))
	start := page * size
	if start >= len(matched) {
		return []*domain.User{}, total, nil
	}
	end := min(start+size, len(matched))
	return matched[start:end], total, nil
}

func (r *MemoryUserRepository) CountByTenant(_ context.Context, tenantID int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.live(tenantID))), nil
}

func (r *MemoryUserRepository) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[u.ID]
	if !ok || existing.TenantID != u.TenantID || existing.IsDeleted() {
		return domain.NewNotFoundError("User", u.ID)
	}
	if other := r.findEmail(u.TenantID, u.Email); other != nil && other.ID != u.ID {
		return &domain.ConflictError{Field: "email", Value: u.Email}
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = copyUser(u)
	return nil
}

// MemoryTaskRepository is an in-memory TaskRepository driven by the same
// query plans as the PostgreSQL one
type MemoryTaskRepository struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]*domain.Task
}

// NewMemoryTaskRepository creates an empty MemoryTaskRepository
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[int64]*domain.Task)}
}

func copyTask(t *domain.Task) *domain.Task {
	copied := *t
	return &copied
}

func (r *MemoryTaskRepository) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	r.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *MemoryTaskRepository) GetByID(_ context.Context, tenantID, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok || t.TenantID != tenantID || t.IsDeleted() {
		return nil, nil
	}
	return copyTask(t), nil
}

func (r *MemoryTaskRepository) Update(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tasks[t.ID]
	if !ok || existing.TenantID != t.TenantID || existing.IsDeleted() {
		return domain.NewNotFoundError("Task", t.ID)
	}
	r.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *MemoryTaskRepository) snapshot() []*domain.Task {
	out := make([]*domain.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, copyTask(t))
	}
	return out
}

func (r *MemoryTaskRepository) Find(_ context.Context, plan *query.Plan) ([]*domain.Task, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	page, total := plan.Apply(r.snapshot())
	return page, total, nil
}

func (r *MemoryTaskRepository) Count(_ context.Context, plan *query.Plan) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, t := range r.tasks {
		if plan.Match(t) {
			n++
		}
	}
	return n, nil
}

// MemoryAuditRepository is an in-memory AuditRepository
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	nextID  int64
	entries []*domain.AuditEntry
}

// NewMemoryAuditRepository creates an empty MemoryAuditRepository
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) InsertBatch(_ context.Context, entries []*domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		r.nextID++
		copied := *e
		copied.ID = r.nextID
		r.entries = append(r.entries, &copied)
	}
	return nil
}

func (r *MemoryAuditRepository) List(_ context.Context, tenantID int64, f domain.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.AuditEntry, 0)
	for _, e := range r.entries {
		if e.TenantID != tenantID ||
			(f.EntityType != "" && e.EntityType != f.EntityType) ||
			(f.EntityID != nil && (e.EntityID == nil || *e.EntityID != *f.EntityID)) ||
			(f.UserID != nil && (e.UserID == nil || *e.UserID != *f.UserID)) ||
			(f.Action != "" && e.Action != f.Action) {
			continue
		}
		copied := *e
		matched = append(matched, &copied)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})

	page, size := auditPaging(f)
	total := int64(len(matched))
	start := page * size
	if start >= len(matched) {
		return []*domain.AuditEntry{}, total, nil
	}
	end := min(start+size, len(matched))
	return matched[start:end], total, nil
}
