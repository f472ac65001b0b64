package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"momo-loanhub/internal/pkg/pagination"

	"github.com/stretchr/testify/require"
)

func TestDashboardService(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	day := 24 * time.Hour

	db := newTestDB(t)
	repos := newTestRepos(db)
	svc := NewDashboardService(db, repos.users, repos.repayments)
	svc.now = func() time.Time { return now }

	// completed: every installment paid
	done := seedBorrower(t, repos, "0788000001", []string{"50", "50"}, []time.Duration{-2 * day, -day}, now)
	reps, err := repos.repayments.ListByUser(ctx, done.ID)
	require.NoError(t, err)
	for _, r := range reps {
		_, err := repos.repayments.ClaimPaid(ctx, r.ID, now)
		require.NoError(t, err)
	}

	// in progress: one of two paid
	partial := seedBorrower(t, repos, "0788000002", []string{"100", "100"}, []time.Duration{-day, day}, now)
	reps, err = repos.repayments.ListByUser(ctx, partial.ID)
	require.NoError(t, err)
	_, err = repos.repayments.ClaimPaid(ctx, reps[0].ID, now)
	require.NoError(t, err)

	// in progress: nothing paid
	for i := 3; i <= 6; i++ {
		seedBorrower(t, repos, fmt.Sprintf("078800000%d", i), []string{"10"}, []time.Duration{day}, now)
	}

	t.Run("summary", func(t *testing.T) {
		summary, err := svc.GetSummary(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(6), summary.TotalUsers)
		require.Equal(t, int64(1), summary.Completed)
		require.Equal(t, int64(5), summary.InProgress)
		requireDecimal(t, "340", summary.TotalPrincipal)
	})

	t.Run("rows carry progress", func(t *testing.T) {
		rows, meta, err := svc.ListUsers(ctx, "", pagination.NewParams(1, 0, pagination.DashboardLimit))
		require.NoError(t, err)
		require.Len(t, rows, 5)
		require.Equal(t, int64(6), meta.Total)
		require.Equal(t, 2, meta.TotalPages)

		requireDecimal(t, "100", rows[0].TotalPaid)
		requireDecimal(t, "0", rows[0].Remaining)
		require.Zero(t, rows[0].CountdownSeconds)

		requireDecimal(t, "100", rows[1].TotalPaid)
		requireDecimal(t, "100", rows[1].Remaining)
		require.InDelta(t, day.Seconds(), float64(rows[1].CountdownSeconds), 2)
	})

	t.Run("second page and search", func(t *testing.T) {
		rows, _, err := svc.ListUsers(ctx, "", pagination.NewParams(2, 0, pagination.DashboardLimit))
		require.NoError(t, err)
		require.Len(t, rows, 1)

		rows, meta, err := svc.ListUsers(ctx, "0788000002", pagination.NewParams(1, 0, pagination.DashboardLimit))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, partial.ID, rows[0].ID)
		require.Equal(t, int64(1), meta.Total)
	})
}
