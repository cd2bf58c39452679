package query

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrownAlter/task-management-api/internal/domain"
	"github.com/CrownAlter/task-management-api/internal/tenant"
)

func boolPtr(b bool) *bool           { return &b }
func int64Ptr(i int64) *int64        { return &i }
func timePtr(t time.Time) *time.Time { return &t }

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixtureTasks() []*domain.Task {
	deleted := now.Add(-time.Hour)
	return []*domain.Task{
		{ID: 1, TenantID: 1, Title: "Write docs", Description: "API reference", Status: domain.StatusTodo, Priority: domain.PriorityLow, CreatedByID: 10, DueDate: timePtr(now.Add(-48 * time.Hour)), Tags: "docs,backend", CreatedAt: now.Add(-5 * time.Hour)},
		{ID: 2, TenantID: 1, Title: "Fix login bug", Description: "", Status: domain.StatusInProgress, Priority: domain.PriorityUrgent, CreatedByID: 10, AssignedToID: int64Ptr(20), DueDate: timePtr(now.Add(24 * time.Hour)), Tags: "backend", CreatedAt: now.Add(-4 * time.Hour)},
		{ID: 3, TenantID: 1, Title: "Release", Description: "ship the 50% discount", Status: domain.StatusCompleted, Priority: domain.PriorityHigh, CreatedByID: 11, AssignedToID: int64Ptr(20), DueDate: timePtr(now.Add(-72 * time.Hour)), CompletedAt: timePtr(now.Add(-1 * time.Hour)), CreatedAt: now.Add(-3 * time.Hour)},
		{ID: 4, TenantID: 1, Title: "Old task", Status: domain.StatusTodo, Priority: domain.PriorityMedium, CreatedByID: 10, DeletedAt: &deleted, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 5, TenantID: 2, Title: "Other tenant docs", Status: domain.StatusTodo, Priority: domain.PriorityLow, CreatedByID: 99, DueDate: timePtr(now.Add(-48 * time.Hour)), CreatedAt: now.Add(-1 * time.Hour)},
		{ID: 6, TenantID: 1, Title: "Plan sprint", Status: domain.StatusCancelled, Priority: domain.PriorityMedium, CreatedByID: 11, Tags: "backend,x,urgent", CreatedAt: now.Add(-30 * time.Minute)},
	}
}

func ids(tasks []*domain.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestBuildMandatoryClauses(t *testing.T) {
	plan, err := Build(1, domain.TaskFilter{}, now)
	require.NoError(t, err)

	args := &Args{}
	assert.Equal(t, "tenant_id = $1 AND deleted_at IS NULL", plan.WhereSQL(args))
	assert.Equal(t, []any{int64(1)}, args.Values())
	assert.Equal(t, "created_at DESC NULLS LAST, id DESC", plan.OrderSQL())
	assert.Equal(t, 0, plan.Page)
	assert.Equal(t, domain.DefaultPageSize, plan.Size)

	page, total := plan.Apply(fixtureTasks())
	assert.Equal(t, int64(4), total)
	assert.Equal(t, []int64{6, 3, 2, 1}, ids(page))
}

func TestBuildRequiresTenant(t *testing.T) {
	_, err := Build(0, domain.TaskFilter{}, now)
	assert.ErrorIs(t, err, domain.ErrTenantRequired)

	_, err = BuildFromContext(context.Background(), domain.TaskFilter{}, now)
	assert.ErrorIs(t, err, domain.ErrTenantRequired)

	plan, err := BuildFromContext(tenant.WithTenant(context.Background(), 2), domain.TaskFilter{}, now)
	require.NoError(t, err)
	page, _ := plan.Apply(fixtureTasks())
	assert.Equal(t, []int64{5}, ids(page))
}

func TestBuildFullFilterSQL(t *testing.T) {
	f := domain.TaskFilter{
		Statuses:      []domain.TaskStatus{domain.StatusTodo, domain.StatusInProgress},
		Priorities:    []domain.TaskPriority{domain.PriorityHigh},
		AssignedToID:  int64Ptr(20),
		CreatedByID:   int64Ptr(10),
		Search:        "  50%_off ",
		DueDateFrom:   timePtr(now.Add(-time.Hour)),
		DueDateTo:     timePtr(now.Add(time.Hour)),
		Tags:          "backend",
		Overdue:       boolPtr(true),
		Completed:     boolPtr(false),
		Page:          2,
		Size:          10,
		SortBy:        "priority",
		SortDirection: "ASC",
	}
	plan, err := Build(7, f, now)
	require.NoError(t, err)

	args := &Args{}
	sql := plan.WhereSQL(args)
	assert.Equal(t,
		"tenant_id = $1 AND deleted_at IS NULL"+
			" AND status IN ($2, $3)"+
			" AND priority IN ($4)"+
			" AND assigned_to_id = $5"+
			" AND created_by_id = $6"+
			` AND (LOWER(title) LIKE $7 ESCAPE '\' OR LOWER(description) LIKE $8 ESCAPE '\')`+
			" AND due_date >= $9"+
			" AND due_date <= $10"+
			` AND LOWER(tags) LIKE $11 ESCAPE '\'`+
			" AND due_date < $12"+
			" AND status <> $13"+
			" AND status <> $14",
		sql)

	values := args.Values()
	require.Len(t, values, 14)
	assert.Equal(t, int64(7), values[0])
	assert.Equal(t, "TODO", values[1])
	assert.Equal(t, `%50\%\_off%`, values[6])
	assert.Equal(t, "%backend%", values[10])
	assert.Equal(t, now, values[11])
	assert.Equal(t, "COMPLETED", values[12])

	assert.Equal(t, 20, plan.Offset())
	assert.Contains(t, plan.OrderSQL(), "CASE priority")
	assert.Contains(t, plan.OrderSQL(), "ASC NULLS LAST, id ASC")
}

func TestOverdueNeverReturnsCompletedOrUndated(t *testing.T) {
	plan, err := Build(1, domain.TaskFilter{Overdue: boolPtr(true)}, now)
	require.NoError(t, err)

	page, _ := plan.Apply(fixtureTasks())
	require.NotEmpty(t, page)
	for _, task := range page {
		require.NotNil(t, task.DueDate)
		assert.True(t, task.DueDate.Before(now))
		assert.NotEqual(t, domain.StatusCompleted, task.Status)
	}
	assert.Equal(t, []int64{1}, ids(page))
}

func TestBuildFilters(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.TaskFilter
		want   []int64
	}{
		{"statuses", domain.TaskFilter{Statuses: []domain.TaskStatus{domain.StatusTodo, domain.StatusCancelled}}, []int64{6, 1}},
		{"priorities", domain.TaskFilter{Priorities: []domain.TaskPriority{domain.PriorityUrgent, domain.PriorityHigh}}, []int64{3, 2}},
		{"assignee", domain.TaskFilter{AssignedToID: int64Ptr(20)}, []int64{3, 2}},
		{"creator", domain.TaskFilter{CreatedByID: int64Ptr(11)}, []int64{6, 3}},
		{"search title case-insensitive", domain.TaskFilter{Search: "DOCS"}, []int64{1}},
		{"search description", domain.TaskFilter{Search: "reference"}, []int64{1}},
		{"search literal percent", domain.TaskFilter{Search: "50%"}, []int64{3}},
		{"blank search ignored", domain.TaskFilter{Search: "   "}, []int64{6, 3, 2, 1}},
		{"tags", domain.TaskFilter{Tags: "Backend"}, []int64{6, 2, 1}},
		{"tag list matches stored text", domain.TaskFilter{Tags: "docs, backend"}, []int64{1}},
		{"tag list is not reordered", domain.TaskFilter{Tags: "backend,docs"}, []int64{}},
		{"tag list is one substring", domain.TaskFilter{Tags: "urgent,backend"}, []int64{}},
		{"due from", domain.TaskFilter{DueDateFrom: timePtr(now.Add(-60 * time.Hour))}, []int64{2, 1}},
		{"due to", domain.TaskFilter{DueDateTo: timePtr(now)}, []int64{3, 1}},
		{"completed", domain.TaskFilter{Completed: boolPtr(true)}, []int64{3}},
		{"not completed", domain.TaskFilter{Completed: boolPtr(false)}, []int64{6, 2, 1}},
		{"overdue false is not applied", domain.TaskFilter{Overdue: boolPtr(false)}, []int64{6, 3, 2, 1}},
		{"statuses and completed combine", domain.TaskFilter{Statuses: []domain.TaskStatus{domain.StatusCompleted, domain.StatusTodo}, Completed: boolPtr(true)}, []int64{3}},
		{"sort by due date asc nulls last", domain.TaskFilter{SortBy: "dueDate", SortDirection: "asc"}, []int64{3, 1, 2, 6}},
		{"sort by priority desc", domain.TaskFilter{SortBy: "priority", SortDirection: "Desc"}, []int64{2, 3, 6, 1}},
		{"second page", domain.TaskFilter{Page: 1, Size: 3}, []int64{1}},
		{"page past end", domain.TaskFilter{Page: 5, Size: 3}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Build(1, tt.filter, now)
			require.NoError(t, err)
			page, _ := plan.Apply(fixtureTasks())
			assert.Equal(t, tt.want, ids(page))
		})
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.TaskFilter
		field  string
	}{
		{"unknown status", domain.TaskFilter{Statuses: []domain.TaskStatus{"DONE"}}, "status"},
		{"unknown priority", domain.TaskFilter{Priorities: []domain.TaskPriority{"CRITICAL"}}, "priority"},
		{"unknown sort field", domain.TaskFilter{SortBy: "password"}, "sortBy"},
		{"bad direction", domain.TaskFilter{SortDirection: "sideways"}, "sortDirection"},
		{"negative page", domain.TaskFilter{Page: -1}, "page"},
		{"negative size", domain.TaskFilter{Size: -5}, "size"},
		{"page overflows offset", domain.TaskFilter{Page: math.MaxInt / 50, Size: 100}, "page"},
		{"inverted due range", domain.TaskFilter{DueDateFrom: timePtr(now), DueDateTo: timePtr(now.Add(-time.Hour))}, "dueDateFrom"},
		{"malformed tag", domain.TaskFilter{Tags: "ok,no spaces"}, "tags"},
		{"completed without COMPLETED status", domain.TaskFilter{Statuses: []domain.TaskStatus{domain.StatusTodo}, Completed: boolPtr(true)}, "completed"},
		{"not completed with only COMPLETED", domain.TaskFilter{Statuses: []domain.TaskStatus{domain.StatusCompleted}, Completed: boolPtr(false)}, "completed"},
		{"overdue and completed", domain.TaskFilter{Overdue: boolPtr(true), Completed: boolPtr(true)}, "overdue"},
		{"overdue with only COMPLETED", domain.TaskFilter{Overdue: boolPtr(true), Statuses: []domain.TaskStatus{domain.StatusCompleted}}, "overdue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(1, tt.filter, now)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestPageSizeIsCapped(t *testing.T) {
	plan, err := Build(1, domain.TaskFilter{Size: 1000}, now)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxPageSize, plan.Size)
}

func TestSortFieldNames(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{"createdAt", "updatedAt", "dueDate", "priority", "status", "title", "completedAt"},
		SortFieldNames())
}
