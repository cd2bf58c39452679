// Package query compiles task list filters into a predicate plus an
// ordering and paging plan. The same plan drives the PostgreSQL repository
// and the in-memory one.
package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/tenant"
)

// Order is the sort specification of a plan
type Order struct {
	Field Field
	Desc  bool
}

// Plan is a compiled task query
type Plan struct {
	TenantID int64
	Where    Predicate
	Order    Order
	Page     int
	Size     int
}

// BuildFromContext builds a plan for the tenant bound to ctx
func BuildFromContext(ctx context.Context, f domain.TaskFilter, now time.Time) (*Plan, error) {
	tenantID, err := tenant.Require(ctx)
	if err != nil {
		return nil, err
	}
	return Build(tenantID, f, now)
}

// Build compiles the filter. The tenant clause and the soft-delete clause are
// always present and always first.
func Build(tenantID int64, f domain.TaskFilter, now time.Time) (*Plan, error) {
	if tenantID <= 0 {
		return nil, domain.ErrTenantRequired
	}
	if err := checkContradictions(f); err != nil {
		return nil, err
	}

	where := And{
		Eq(FieldTenantID, tenantID),
		IsNull{Field: FieldDeletedAt},
	}

	if len(f.Statuses) > 0 {
		for _, s := range f.Statuses {
			if !s.IsValid() {
				return nil, domain.NewValidationError("status", fmt.Sprintf("unknown task status %q", s))
			}
		}
		where = append(where, InValues(FieldStatus, f.Statuses))
	}

	if len(f.Priorities) > 0 {
		for _, p := range f.Priorities {
			if !p.IsValid() {
				return nil, domain.NewValidationError("priority", fmt.Sprintf("unknown task priority %q", p))
			}
		}
		where = append(where, InValues(FieldPriority, f.Priorities))
	}

	if f.AssignedToID != nil {
		where = append(where, Eq(FieldAssignedTo, *f.AssignedToID))
	}
	if f.CreatedByID != nil {
		where = append(where, Eq(FieldCreatedBy, *f.CreatedByID))
	}

	if term := strings.TrimSpace(f.Search); term != "" {
		where = append(where, Or{
			ContainsFold{Field: FieldTitle, Term: term},
			ContainsFold{Field: FieldDescription, Term: term},
		})
	}

	if f.DueDateFrom != nil && f.DueDateTo != nil && f.DueDateFrom.After(*f.DueDateTo) {
		return nil, domain.NewValidationError("dueDateFrom", "dueDateFrom must not be after dueDateTo")
	}
	if f.DueDateFrom != nil {
		where = append(where, AtLeast(FieldDueDate, *f.DueDateFrom))
	}
	if f.DueDateTo != nil {
		where = append(where, AtMost(FieldDueDate, *f.DueDateTo))
	}

	if tags := strings.TrimSpace(f.Tags); tags != "" {
		if err := domain.ValidateTags(tags); err != nil {
			return nil, err
		}
		where = append(where, ContainsFold{Field: FieldTags, Term: domain.NormalizeTags(tags)})
	}

	if f.Overdue != nil && *f.Overdue {
		where = append(where,
			Less(FieldDueDate, now),
			NotEq(FieldStatus, domain.StatusCompleted),
		)
	}

	if f.Completed != nil {
		if *f.Completed {
			where = append(where, Eq(FieldStatus, domain.StatusCompleted))
		} else {
			where = append(where, NotEq(FieldStatus, domain.StatusCompleted))
		}
	}

	order, err := buildOrder(f.SortBy, f.SortDirection)
	if err != nil {
		return nil, err
	}

	page, size, err := buildPaging(f.Page, f.Size)
	if err != nil {
		return nil, err
	}

	return &Plan{
		TenantID: tenantID,
		Where:    where,
		Order:    order,
		Page:     page,
		Size:     size,
	}, nil
}

// checkContradictions rejects combinations that can never match. Statuses,
// completed and overdue are otherwise combined with AND.
func checkContradictions(f domain.TaskFilter) error {
	hasCompleted := false
	onlyCompleted := len(f.Statuses) > 0
	for _, s := range f.Statuses {
		if s == domain.StatusCompleted {
			hasCompleted = true
		} else {
			onlyCompleted = false
		}
	}

	if f.Completed != nil {
		if *f.Completed && len(f.Statuses) > 0 && !hasCompleted {
			return domain.NewValidationError("completed", "completed=true contradicts the requested statuses")
		}
		if !*f.Completed && onlyCompleted {
			return domain.NewValidationError("completed", "completed=false contradicts the requested statuses")
		}
	}
	if f.Overdue != nil && *f.Overdue {
		if f.Completed != nil && *f.Completed {
			return domain.NewValidationError("overdue", "overdue tasks are never completed")
		}
		if onlyCompleted {
			return domain.NewValidationError("overdue", "overdue contradicts the requested statuses")
		}
	}
	return nil
}

func buildOrder(sortBy, direction string) (Order, error) {
	if sortBy == "" {
		sortBy = domain.DefaultSortBy
	}
	field, ok := sortFields[sortBy]
	if !ok {
		return Order{}, domain.NewValidationError("sortBy", fmt.Sprintf("cannot sort by %q", sortBy))
	}

	if direction == "" {
		direction = domain.DefaultDirection
	}
	switch {
	case strings.EqualFold(direction, "asc"):
		return Order{Field: field}, nil
	case strings.EqualFold(direction, "desc"):
		return Order{Field: field, Desc: true}, nil
	}
	return Order{}, domain.NewValidationError("sortDirection", "sort direction must be asc or desc")
}

func buildPaging(page, size int) (int, int, error) {
	if page < 0 {
		return 0, 0, domain.NewValidationError("page", "page must not be negative")
	}
	if size < 0 {
		return 0, 0, domain.NewValidationError("size", "size must be positive")
	}
	if size == 0 {
		size = domain.DefaultPageSize
	}
	if size > domain.MaxPageSize {
		size = domain.MaxPageSize
	}
	if page > math.MaxInt/size {
		return 0, 0, domain.NewValidationError("page", "page is out of range")
	}
	return page, size, nil
}

// Offset returns the number of rows skipped before the page
func (p *Plan) Offset() int {
	return p.Page * p.Size
}

// WhereSQL renders the predicate, appending parameters to args
func (p *Plan) WhereSQL(args *Args) string {
	return p.Where.SQL(args)
}

// OrderSQL renders the ORDER BY expression. NULLs sort last in both
// directions and id breaks ties so paging is stable.
func (p *Plan) OrderSQL() string {
	dir := "ASC"
	if p.Order.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s NULLS LAST, id %s", p.Order.Field.orderExpr(), dir, dir)
}

// Match evaluates the predicate against one task
func (p *Plan) Match(t *domain.Task) bool {
	return p.Where.Match(t)
}

// Less orders two tasks the way OrderSQL does
func (p *Plan) Less(a, b *domain.Task) bool {
	av, bv := p.Order.Field.orderValue(a), p.Order.Field.orderValue(b)
	switch {
	case av == nil && bv == nil:
	case av == nil:
		return false
	case bv == nil:
		return true
	default:
		if c, ok := compare(av, bv); ok && c != 0 {
			if p.Order.Desc {
				return c > 0
			}
			return c < 0
		}
	}
	if p.Order.Desc {
		return a.ID > b.ID
	}
	return a.ID < b.ID
}

// Apply filters, sorts and pages tasks in memory. It returns the page and
// the total number of matches.
func (p *Plan) Apply(tasks []*domain.Task) ([]*domain.Task, int64) {
	matched := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if p.Match(t) {
			matched = append(matched, t)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return p.Less(matched[i], matched[j]) })

	total := int64(len(matched))
	start := p.Offset()
	if start >= len(matched) {
		return []*domain.Task{}, total
	}
	end := start + p.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total
}
