package outbreak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carewatch/stewardship/pkg/types"
)

func TestTransition(t *testing.T) {
	ts := time.Date(2026, time.January, 15, 9, 30, 0, 0, time.UTC)

	t.Run("active to resolved stamps resolvedAt", func(t *testing.T) {
		o := &types.Outbreak{ID: "ob-1", Type: "influenza", Status: types.OutbreakStatusActive}

		result, err := Transition(o, types.OutbreakStatusResolved, ts)
		require.NoError(t, err)

		assert.Equal(t, types.OutbreakStatusResolved, result.Status)
		require.NotNil(t, result.ResolvedAt)
		assert.Equal(t, ts, *result.ResolvedAt)
	})

	t.Run("watch to active does not stamp resolvedAt", func(t *testing.T) {
		o := &types.Outbreak{ID: "ob-2", Status: types.OutbreakStatusWatch}

		result, err := Transition(o, types.OutbreakStatusActive, ts)
		require.NoError(t, err)

		assert.Equal(t, types.OutbreakStatusActive, result.Status)
		assert.Nil(t, result.ResolvedAt)
	})

	t.Run("watch may resolve directly", func(t *testing.T) {
		o := &types.Outbreak{ID: "ob-3", Status: types.OutbreakStatusWatch}

		result, err := Transition(o, types.OutbreakStatusResolved, ts)
		require.NoError(t, err)
		assert.Equal(t, types.OutbreakStatusResolved, result.Status)
	})

	t.Run("resolved is terminal", func(t *testing.T) {
		resolvedAt := ts
		o := &types.Outbreak{ID: "ob-4", Status: types.OutbreakStatusResolved, ResolvedAt: &resolvedAt}

		result, err := Transition(o, types.OutbreakStatusWatch, ts.Add(time.Hour))
		assert.Error(t, err)
		assert.Nil(t, result)

		// The input outbreak is untouched.
		assert.Equal(t, types.OutbreakStatusResolved, o.Status)
		assert.Equal(t, ts, *o.ResolvedAt)
	})

	t.Run("transition appends to audit history", func(t *testing.T) {
		o := &types.Outbreak{ID: "ob-5", Status: types.OutbreakStatusWatch}

		active, err := Transition(o, types.OutbreakStatusActive, ts)
		require.NoError(t, err)
		resolved, err := Transition(active, types.OutbreakStatusResolved, ts.Add(time.Hour))
		require.NoError(t, err)

		require.Len(t, resolved.History, 2)
		assert.Equal(t, types.OutbreakStatusWatch, resolved.History[0].From)
		assert.Equal(t, types.OutbreakStatusActive, resolved.History[0].To)
		assert.Equal(t, ts, resolved.History[0].Timestamp)
		assert.Equal(t, types.OutbreakStatusActive, resolved.History[1].From)
		assert.Equal(t, types.OutbreakStatusResolved, resolved.History[1].To)
	})

	t.Run("no-op same-state transition is rejected", func(t *testing.T) {
		o := &types.Outbreak{ID: "ob-6", Status: types.OutbreakStatusActive}

		_, err := Transition(o, types.OutbreakStatusActive, ts)
		assert.Error(t, err)
	})

	t.Run("unknown target status is rejected", func(t *testing.T) {
		o := &types.Outbreak{ID: "ob-7", Status: types.OutbreakStatusWatch}

		_, err := Transition(o, types.OutbreakStatus("reopened"), ts)
		assert.Error(t, err)
	})

	t.Run("nil outbreak is rejected", func(t *testing.T) {
		_, err := Transition(nil, types.OutbreakStatusActive, ts)
		assert.Error(t, err)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		o := &types.Outbreak{ID: "ob-8", Status: types.OutbreakStatusActive}

		a, err := Transition(o, types.OutbreakStatusResolved, ts)
		require.NoError(t, err)
		b, err := Transition(o, types.OutbreakStatusResolved, ts)
		require.NoError(t, err)

		assert.Equal(t, a, b)
	})
}
