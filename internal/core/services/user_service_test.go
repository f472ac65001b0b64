package services

import (
	"context"
	"testing"
	"time"

	"momo-loanhub/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestRemainingText(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "3 days", remainingText(now.Add(3*24*time.Hour+time.Hour), now))
	require.Equal(t, "0 days", remainingText(now.Add(time.Hour), now))
	require.Equal(t, "1 days ago", remainingText(now.Add(-time.Hour), now))
	require.Equal(t, "2 days ago", remainingText(now.Add(-2*24*time.Hour), now))
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	day := 24 * time.Hour

	setup := func(t *testing.T) (*UserService, testRepos, *recordingSharer) {
		db := newTestDB(t)
		repos := newTestRepos(db)
		sharer := &recordingSharer{}
		svc := NewUserService(db, repos.users, repos.repayments, sharer)
		svc.now = func() time.Time { return now }
		return svc, repos, sharer
	}

	t.Run("search by name or phone", func(t *testing.T) {
		svc, repos, _ := setup(t)
		seedBorrower(t, repos, "0788000001", []string{"10"}, []time.Duration{day}, now)
		seedBorrower(t, repos, "0722000002", []string{"10"}, []time.Duration{day}, now)

		users, err := svc.Search(ctx, "0722")
		require.NoError(t, err)
		require.Len(t, users, 1)

		users, err = svc.Search(ctx, "Borrower")
		require.NoError(t, err)
		require.Len(t, users, 2)
		require.Equal(t, "0788000001", users[0].Phone)
	})

	t.Run("detail derives statuses and totals", func(t *testing.T) {
		svc, repos, _ := setup(t)
		user := seedBorrower(t, repos, "0788000001",
			[]string{"100", "100", "100"},
			[]time.Duration{-2 * day, -time.Hour, 2*day + time.Hour}, now)

		reps, err := repos.repayments.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		_, err = repos.repayments.ClaimPaid(ctx, reps[0].ID, now)
		require.NoError(t, err)

		detail, err := svc.Detail(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, detail.Installments, 3)
		require.Equal(t, domain.StatusPaid, detail.Installments[0].Status)
		require.Equal(t, domain.StatusOverdue, detail.Installments[1].Status)
		require.Equal(t, domain.StatusUnpaid, detail.Installments[2].Status)
		require.Equal(t, "1 days ago", detail.Installments[1].RemainingTime)
		require.Equal(t, "2 days", detail.Installments[2].RemainingTime)
		requireDecimal(t, "100", detail.TotalPaid)
		requireDecimal(t, "200", detail.Remaining)
	})

	t.Run("update applies only given fields", func(t *testing.T) {
		svc, repos, _ := setup(t)
		user := seedBorrower(t, repos, "0788000001", []string{"10"}, []time.Duration{day}, now)
		seedBorrower(t, repos, "0788000002", []string{"10"}, []time.Duration{day}, now)

		name := "Renamed"
		duration := 9
		updated, err := svc.Update(ctx, user.ID, &UpdateUserInput{FullName: &name, Duration: &duration})
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.FullName)
		require.Equal(t, 9, updated.Duration)
		require.Equal(t, "0788000001", updated.Phone)

		taken := "0788000002"
		_, err = svc.Update(ctx, user.ID, &UpdateUserInput{Phone: &taken})
		require.ErrorIs(t, err, domain.ErrPhoneAlreadyRegistered)

		zero := 0
		_, err = svc.Update(ctx, user.ID, &UpdateUserInput{Duration: &zero})
		require.ErrorIs(t, err, domain.ErrInvalidDuration)

		_, err = svc.Update(ctx, 999, &UpdateUserInput{FullName: &name})
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("delete cascades to the schedule", func(t *testing.T) {
		svc, repos, _ := setup(t)
		user := seedBorrower(t, repos, "0788000001", []string{"10", "10"}, []time.Duration{day, 2 * day}, now)
		other := seedBorrower(t, repos, "0788000002", []string{"10"}, []time.Duration{day}, now)

		require.NoError(t, svc.Delete(ctx, user.ID))
		require.ErrorIs(t, svc.Delete(ctx, user.ID), domain.ErrUserNotFound)

		all, err := repos.repayments.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Equal(t, other.ID, all[0].UserID)
	})

	t.Run("mark paid flips status once and calls the hook", func(t *testing.T) {
		svc, repos, sharer := setup(t)
		seedAccount(t, repos, "0788000001", "500")
		user := seedBorrower(t, repos, "0788000001", []string{"10"}, []time.Duration{day}, now)
		reps, err := repos.repayments.ListByUser(ctx, user.ID)
		require.NoError(t, err)

		rep, err := svc.MarkPaid(ctx, reps[0].ID)
		require.NoError(t, err)
		require.True(t, rep.Paid)

		rep, err = svc.MarkPaid(ctx, reps[0].ID)
		require.NoError(t, err)
		require.True(t, rep.Paid)

		require.Equal(t, []uint{reps[0].ID}, sharer.calls())
		requireDecimal(t, "500", balanceOf(t, repos, "0788000001"))

		_, err = svc.MarkPaid(ctx, 999)
		require.ErrorIs(t, err, domain.ErrInstallmentNotFound)
	})
}
