package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"momo-loanhub/internal/adapters/persistence/models"
	"momo-loanhub/internal/core/domain"

	"github.com/stretchr/testify/require"
)

func newTestUSSD(t *testing.T) (*USSDService, testRepos) {
	t.Helper()
	db := newTestDB(t)
	repos := newTestRepos(db)
	registration := NewRegistrationService(db, repos.users, repos.repayments, repos.sessions)
	return NewUSSDService(repos.sessions, repos.users, repos.repayments, registration, testConfig().USSD), repos
}

// dial replays the gateway: each turn carries the whole history joined by "*"
type dial struct {
	t       *testing.T
	svc     *USSDService
	session string
	phone   string
	history []string
}

func (d *dial) send(answer string) string {
	d.t.Helper()
	d.history = append(d.history, answer)
	return d.svc.Handle(context.Background(), USSDRequest{
		SessionID: d.session,
		Phone:     d.phone,
		Text:      strings.Join(d.history, "*"),
	}).String()
}

func countUsers(t *testing.T, repos testRepos) int {
	t.Helper()
	users, err := repos.users.Search(context.Background(), "")
	require.NoError(t, err)
	return len(users)
}

func TestUSSDMenu(t *testing.T) {
	svc, _ := newTestUSSD(t)

	reply := svc.Handle(context.Background(), USSDRequest{SessionID: "s1", Phone: "0788000000"})
	require.Equal(t, "CON Welcome to USSD Loan Service\n1. Register\n2. Check Loan\n3. View Repayments\n4. Exit", reply.String())

	reply = svc.Handle(context.Background(), USSDRequest{SessionID: "s1", Phone: "0788000000", Text: "9"})
	require.Equal(t, "END Invalid choice or format. Please try again.", reply.String())

	reply = svc.Handle(context.Background(), USSDRequest{SessionID: "s1", Phone: "0788000000", Text: "4"})
	require.True(t, strings.HasPrefix(reply.String(), "END Thank you"))
}

func TestUSSDStepwiseRegistration(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestUSSD(t)
	d := &dial{t: t, svc: svc, session: "sess-1", phone: "0788123456"}

	require.Equal(t, "CON Enter your National ID:", d.send("1"))

	sess, err := repos.sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, domain.StepAwaitNationalID, sess.CurrentStep())

	require.Equal(t, "CON Enter your Full Name:", d.send("1199080012345678"))
	require.Equal(t, "CON Enter your Address (village, cell, sector):", d.send("Jane Uwase"))
	require.Equal(t, "CON Enter your Father's Name:", d.send("Gasabo, Kimironko, Bibare"))
	require.Equal(t, "CON Enter your Mother's Name:", d.send("John"))
	require.Equal(t, "CON Enter desired Loan Amount (RWF):", d.send("Mary"))
	require.Equal(t, "CON Enter loan duration (in days):", d.send("5000"))

	sess, err = repos.sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, domain.StepAwaitDuration, sess.CurrentStep())
	require.Equal(t, "Jane Uwase", sess.FullName)
	require.Equal(t, "Mary", sess.MotherName)

	before := time.Now()
	require.Equal(t, "END ✅ Registration successful! You will receive SMS confirmation.", d.send("5"))

	_, err = repos.sessions.Get(ctx, "sess-1")
	require.Error(t, err, "session must be removed on completion")

	user, err := repos.users.GetByPhone(ctx, "0788123456")
	require.NoError(t, err)
	require.Equal(t, "1199080012345678", user.NationalID)
	require.Equal(t, "Jane Uwase", user.FullName)
	require.Equal(t, "Gasabo, Kimironko, Bibare", user.Address)
	require.Equal(t, "John", user.FatherName)
	require.Equal(t, "Mary", user.MotherName)
	require.Equal(t, "sess-1", user.SessionID)
	requireDecimal(t, "5000", user.LoanAmount)
	require.Equal(t, 5, user.Duration)

	reps, err := repos.repayments.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reps, 5)
	for i, r := range reps {
		requireDecimal(t, "1000", r.Amount)
		require.False(t, r.Paid)
		offset := r.DueDate.Sub(before)
		require.GreaterOrEqual(t, offset, time.Duration(i+1)*24*time.Hour-time.Second)
		require.Less(t, offset, time.Duration(i+1)*24*time.Hour+time.Minute)
	}
}

func TestUSSDNewestTokenIsTheAnswer(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestUSSD(t)

	reply := svc.Handle(ctx, USSDRequest{SessionID: "s", Phone: "0788000001", Text: "1"})
	require.Equal(t, "CON Enter your National ID:", reply.String())

	// gateways that echo less history still advance on the last token
	reply = svc.Handle(ctx, USSDRequest{SessionID: "s", Phone: "0788000001", Text: "ID-77"})
	require.Equal(t, "CON Enter your Full Name:", reply.String())

	sess, err := repos.sessions.Get(ctx, "s")
	require.NoError(t, err)
	require.Equal(t, "ID-77", sess.NationalID)

	for _, answer := range []string{"Ben", "Rubavu", "Joseph", "Claire", "1500"} {
		reply = svc.Handle(ctx, USSDRequest{SessionID: "s", Phone: "0788000001", Text: answer})
		require.True(t, reply.Continue)
	}
	reply = svc.Handle(ctx, USSDRequest{SessionID: "s", Phone: "0788000001", Text: "3"})
	require.Equal(t, "END ✅ Registration successful! You will receive SMS confirmation.", reply.String())

	user, err := repos.users.GetByPhone(ctx, "0788000001")
	require.NoError(t, err)
	require.Equal(t, "Ben", user.FullName)
	require.Equal(t, "Claire", user.MotherName)
	requireDecimal(t, "1500", user.LoanAmount)

	reps, err := repos.repayments.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reps, 3)
	requireDecimal(t, "500", reps[2].Amount)

	_, err = repos.sessions.Get(ctx, "s")
	require.Error(t, err)
}

func TestUSSDBatchRegistration(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestUSSD(t)

	reply := svc.Handle(ctx, USSDRequest{
		SessionID: "batch-1",
		Phone:     "0788555000",
		Text:      "1*ID-1*Eric Mugisha*Huye*Paul*Anne*3000*3",
	})
	require.Equal(t, "END ✅ Registration successful! You will receive SMS confirmation.", reply.String())

	user, err := repos.users.GetByPhone(ctx, "0788555000")
	require.NoError(t, err)
	require.Equal(t, "Eric Mugisha", user.FullName)

	reps, err := repos.repayments.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, reps, 3)
	requireDecimal(t, "1000", reps[0].Amount)

	t.Run("malformed numbers", func(t *testing.T) {
		reply := svc.Handle(ctx, USSDRequest{SessionID: "batch-2", Phone: "0788555001", Text: "1*ID*Name*Addr*F*M*abc*3"})
		require.Equal(t, "END Invalid registration data. Please try again.", reply.String())

		reply = svc.Handle(ctx, USSDRequest{SessionID: "batch-3", Phone: "0788555001", Text: "1*ID*Name*Addr*F*M*3000*0"})
		require.Equal(t, "END Invalid registration data. Please try again.", reply.String())
		require.Equal(t, 1, countUsers(t, repos))
	})

	t.Run("duplicate phone", func(t *testing.T) {
		reply := svc.Handle(ctx, USSDRequest{SessionID: "batch-4", Phone: "0788555000", Text: "1*ID-9*Other*Huye*P*A*100*1"})
		require.Equal(t, "END You are already registered, Eric Mugisha.", reply.String())
		require.Equal(t, 1, countUsers(t, repos))
	})
}

func TestUSSDFailureTransitions(t *testing.T) {
	ctx := context.Background()

	walkToAmount := func(d *dial) {
		d.send("1")
		for _, answer := range []string{"ID", "Name", "Addr", "Father", "Mother"} {
			d.send(answer)
		}
	}

	t.Run("invalid amount cancels the session", func(t *testing.T) {
		svc, repos := newTestUSSD(t)
		d := &dial{t: t, svc: svc, session: "a", phone: "0788000010"}
		walkToAmount(d)

		require.Equal(t, "END Invalid amount. Session cancelled.", d.send("lots"))
		_, err := repos.sessions.Get(ctx, "a")
		require.Error(t, err)
	})

	t.Run("invalid duration cancels the session", func(t *testing.T) {
		svc, repos := newTestUSSD(t)
		d := &dial{t: t, svc: svc, session: "b", phone: "0788000011"}
		walkToAmount(d)
		d.send("1000")

		// a full eight-token history would be read as a single-shot registration
		reply := svc.Handle(ctx, USSDRequest{SessionID: "b", Phone: "0788000011", Text: "0"})
		require.Equal(t, "END Invalid duration. Session cancelled.", reply.String())
		_, err := repos.sessions.Get(ctx, "b")
		require.Error(t, err)
		require.Zero(t, countUsers(t, repos))
	})

	t.Run("unknown step clears the session", func(t *testing.T) {
		svc, repos := newTestUSSD(t)
		require.NoError(t, repos.sessions.Save(ctx, &models.USSDSession{SessionID: "c", Phone: "0788000012", Step: 42}))

		reply := svc.Handle(ctx, USSDRequest{SessionID: "c", Phone: "0788000012", Text: "1*x"})
		require.Equal(t, "END Invalid session state. Please start again.", reply.String())
		_, err := repos.sessions.Get(ctx, "c")
		require.Error(t, err)
	})

	t.Run("missing data at the last step", func(t *testing.T) {
		svc, repos := newTestUSSD(t)
		require.NoError(t, repos.sessions.Save(ctx, &models.USSDSession{
			SessionID: "d",
			Phone:     "0788000013",
			Step:      int(domain.StepAwaitDuration),
			FullName:  "Only Name",
		}))

		reply := svc.Handle(ctx, USSDRequest{SessionID: "d", Phone: "0788000013", Text: "1*5"})
		require.Equal(t, "END Missing data in your session. Please start again.", reply.String())
		require.Zero(t, countUsers(t, repos))
	})
}

func TestUSSDReplayNeverDuplicatesUser(t *testing.T) {
	svc, repos := newTestUSSD(t)
	answers := []string{"1", "ID", "Alice", "Addr", "Father", "Mother", "2000", "4"}

	d := &dial{t: t, svc: svc, session: "replay", phone: "0788777777"}
	var last string
	for _, a := range answers {
		last = d.send(a)
	}
	require.Equal(t, "END ✅ Registration successful! You will receive SMS confirmation.", last)

	// same session id, whole dialog again
	d = &dial{t: t, svc: svc, session: "replay", phone: "0788777777"}
	for _, a := range answers {
		last = d.send(a)
	}
	require.Equal(t, "END You are already registered, Alice.", last)

	// fresh session id, same phone
	d = &dial{t: t, svc: svc, session: "replay-2", phone: "0788777777"}
	for _, a := range answers {
		last = d.send(a)
	}
	require.Equal(t, "END You are already registered, Alice.", last)

	require.Equal(t, 1, countUsers(t, repos))
}

func TestUSSDLoanQueries(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestUSSD(t)

	reply := svc.Handle(ctx, USSDRequest{SessionID: "q", Phone: "0788111111", Text: "2"})
	require.Equal(t, "END You are not registered yet.", reply.String())

	reply = svc.Handle(ctx, USSDRequest{SessionID: "q", Phone: "0788111111", Text: "3"})
	require.Equal(t, "END You are not registered yet.", reply.String())

	reply = svc.Handle(ctx, USSDRequest{SessionID: "reg", Phone: "0788111111", Text: "1*ID*Grace*Musanze*P*M*7000*7"})
	require.True(t, strings.HasPrefix(reply.String(), "END ✅"))

	reply = svc.Handle(ctx, USSDRequest{SessionID: "q2", Phone: "0788111111", Text: "2"})
	require.Equal(t, "END Hello Grace, Loan Amount: RWF 7000.00, Duration: 7 days", reply.String())

	user, err := repos.users.GetByPhone(ctx, "0788111111")
	require.NoError(t, err)
	reps, err := repos.repayments.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	ok, err := repos.repayments.ClaimPaid(ctx, reps[6].ID, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	reply = svc.Handle(ctx, USSDRequest{SessionID: "q3", Phone: "0788111111", Text: "3"})
	lines := strings.Split(reply.String(), "\n")
	require.Equal(t, "END Last repayments:", lines[0])
	require.Len(t, lines, 6)
	require.Equal(t, reps[2].DueDate.Format("2006-01-02")+": RWF 1000.00 - Unpaid", lines[1])
	require.Equal(t, reps[6].DueDate.Format("2006-01-02")+": RWF 1000.00 - Paid", lines[5])
}

func TestUSSDStartWithoutSessionID(t *testing.T) {
	svc, _ := newTestUSSD(t)
	reply := svc.Handle(context.Background(), USSDRequest{Phone: "0788000000", Text: "1"})
	require.Equal(t, "END Missing session. Please dial again.", reply.String())
}
