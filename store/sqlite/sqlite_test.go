package sqlite_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiflow/flyingstar/store"
	"github.com/qiflow/flyingstar/store/sqlite"
	"github.com/qiflow/flyingstar/xuankong"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func ids(recs []store.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func TestStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	// GIVEN: a finished assessment
	rec, err := st.Save(ctx, store.Record{
		FacingDegrees: 180,
		Period:        9,
		OverallScore:  decimal.RequireFromString("47.56"),
		Request:       json.RawMessage(`{"facing_degrees":180}`),
		Result:        json.RawMessage(`{"overall_score":"47.56"}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	// WHEN: it is read back
	got, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)

	// THEN: every column survives
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, 180.0, got.FacingDegrees)
	assert.Equal(t, rec.Period, got.Period)
	assert.True(t, rec.OverallScore.Equal(got.OverallScore))
	assert.JSONEq(t, `{"facing_degrees":180}`, string(got.Request))
	assert.JSONEq(t, `{"overall_score":"47.56"}`, string(got.Result))
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_GetUnknown(t *testing.T) {
	st := newTestStore(t)

	_, err := st.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrAssessmentNotFound)
}

func TestStore_SaveReplacesSameID(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.Save(ctx, store.Record{ID: "house-1", Period: 8, OverallScore: decimal.NewFromInt(40)})
	require.NoError(t, err)
	_, err = st.Save(ctx, store.Record{ID: "house-1", Period: 9, OverallScore: decimal.NewFromInt(55)})
	require.NoError(t, err)

	all, err := st.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 9, int(all[0].Period))
}

func TestStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	base := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)

	// GIVEN: three assessments an hour apart
	for i, id := range []string{"a", "b", "c"} {
		period := 9
		if id == "a" {
			period = 8
		}
		_, err := st.Save(ctx, store.Record{
			ID:           id,
			Period:       xuankong.Period(period),
			OverallScore: decimal.Zero,
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	// THEN: newest first, filtered and limited
	all, err := st.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))

	nine, err := st.List(ctx, store.ListFilter{Period: 9})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids(nine))

	one, err := st.List(ctx, store.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(one))

	none, err := st.List(ctx, store.ListFilter{Period: 1})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	rec, err := st.Save(ctx, store.Record{Period: 9, OverallScore: decimal.Zero})
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, rec.ID))
	assert.ErrorIs(t, st.Delete(ctx, rec.ID), store.ErrAssessmentNotFound)
}
