package services

import (
	"context"
	"testing"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func TestRegistrationService(t *testing.T) {
	ctx := context.Background()

	valid := func(phone string) domain.Registration {
		return domain.Registration{
			SessionID:  "sess-" + phone,
			Phone:      phone,
			NationalID: "ID",
			FullName:   "Name",
			Address:    "Addr",
			FatherName: "F",
			MotherName: "M",
			LoanAmount: dec("5000"),
			Duration:   5,
		}
	}

	t.Run("creates user, schedule and drops the session", func(t *testing.T) {
		db := newTestDB(t)
		repos := newTestRepos(db)
		svc := NewRegistrationService(db, repos.users, repos.repayments, repos.sessions)
		fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		svc.now = func() time.Time { return fixed }

		require.NoError(t, repos.sessions.Save(ctx, &models.USSDSession{SessionID: "sess-0788", Phone: "0788"}))

		user, err := svc.Register(ctx, valid("0788"))
		require.NoError(t, err)
		require.NotZero(t, user.ID)
		require.True(t, fixed.Equal(user.DateRegistered))

		reps, err := repos.repayments.ListByUser(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, reps, 5)
		for i, r := range reps {
			requireDecimal(t, "1000", r.Amount)
			require.True(t, fixed.Add(time.Duration(i+1)*24*time.Hour).Equal(r.DueDate), "due %v", r.DueDate)
		}

		_, err = repos.sessions.Get(ctx, "sess-0788")
		require.Error(t, err)
	})

	t.Run("duplicate phone is rejected without side effects", func(t *testing.T) {
		db := newTestDB(t)
		repos := newTestRepos(db)
		svc := NewRegistrationService(db, repos.users, repos.repayments, repos.sessions)

		_, err := svc.Register(ctx, valid("0788"))
		require.NoError(t, err)

		_, err = svc.Register(ctx, valid("0788"))
		require.ErrorIs(t, err, domain.ErrPhoneAlreadyRegistered)

		all, err := repos.repayments.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 5)
	})

	t.Run("invalid input", func(t *testing.T) {
		db := newTestDB(t)
		repos := newTestRepos(db)
		svc := NewRegistrationService(db, repos.users, repos.repayments, repos.sessions)

		reg := valid("0788")
		reg.Duration = 0
		_, err := svc.Register(ctx, reg)
		require.ErrorIs(t, err, domain.ErrInvalidDuration)

		reg = valid("0788")
		reg.LoanAmount = dec("-1")
		_, err = svc.Register(ctx, reg)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)

		reg = valid("0788")
		reg.FullName = ""
		_, err = svc.Register(ctx, reg)
		require.ErrorIs(t, err, domain.ErrInvalidInput)

		require.Zero(t, countUsers(t, repos))
	})
}
