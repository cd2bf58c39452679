package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     TaskStatus
		to       TaskStatus
		expected bool
	}{
		// From TODO
		{"TODO -> TODO", StatusTodo, StatusTodo, false},
		{"TODO -> IN_PROGRESS", StatusTodo, StatusInProgress, true},
		{"TODO -> IN_REVIEW", StatusTodo, StatusInReview, true},
		{"TODO -> COMPLETED", StatusTodo, StatusCompleted, true},
		{"TODO -> CANCELLED", StatusTodo, StatusCancelled, true},

		// From IN_PROGRESS
		{"IN_PROGRESS -> TODO", StatusInProgress, StatusTodo, true},
		{"IN_PROGRESS -> IN_PROGRESS", StatusInProgress, StatusInProgress, false},
		{"IN_PROGRESS -> IN_REVIEW", StatusInProgress, StatusInReview, true},
		{"IN_PROGRESS -> COMPLETED", StatusInProgress, StatusCompleted, true},
		{"IN_PROGRESS -> CANCELLED", StatusInProgress, StatusCancelled, true},

		// From IN_REVIEW
		{"IN_REVIEW -> TODO", StatusInReview, StatusTodo, true},
		{"IN_REVIEW -> IN_PROGRESS", StatusInReview, StatusInProgress, true},
		{"IN_REVIEW -> IN_REVIEW", StatusInReview, StatusInReview, false},
		{"IN_REVIEW -> COMPLETED", StatusInReview, StatusCompleted, true},
		{"IN_REVIEW -> CANCELLED", StatusInReview, StatusCancelled, true},

		// From COMPLETED
		{"COMPLETED -> TODO", StatusCompleted, StatusTodo, true},
		{"COMPLETED -> IN_PROGRESS", StatusCompleted, StatusInProgress, true},
		{"COMPLETED -> IN_REVIEW", StatusCompleted, StatusInReview, true},
		{"COMPLETED -> COMPLETED", StatusCompleted, StatusCompleted, false},
		{"COMPLETED -> CANCELLED", StatusCompleted, StatusCancelled, false},

		// From CANCELLED
		{"CANCELLED -> TODO", StatusCancelled, StatusTodo, true},
		{"CANCELLED -> IN_PROGRESS", StatusCancelled, StatusInProgress, true},
		{"CANCELLED -> IN_REVIEW", StatusCancelled, StatusInReview, true},
		{"CANCELLED -> COMPLETED", StatusCancelled, StatusCompleted, false},
		{"CANCELLED -> CANCELLED", StatusCancelled, StatusCancelled, false},

		// Unknown
		{"UNKNOWN -> TODO", TaskStatus("UNKNOWN"), StatusTodo, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))

			err := ValidateTransition(tt.from, tt.to)
			if tt.expected {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrValidation))
			}
		})
	}
}

func TestValidateTransitionSelfIsRejected(t *testing.T) {
	for _, s := range AllStatuses {
		err := ValidateTransition(s, s)
		require.Error(t, err)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "status", vErr.Field)
	}
}

func TestParseTaskStatus(t *testing.T) {
	s, err := ParseTaskStatus(" in_progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = ParseTaskStatus("DONE")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTaskPriorityRank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityUrgent.Rank())
	assert.Equal(t, 0, TaskPriority("NOPE").Rank())

	p, err := ParseTaskPriority("urgent")
	require.NoError(t, err)
	assert.Equal(t, PriorityUrgent, p)
}
