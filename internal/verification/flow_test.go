package verification

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/pickup-platform/internal/handoff"
	"github.com/curbcycle/pickup-platform/internal/notify"
	"github.com/curbcycle/pickup-platform/internal/pricing"
	"github.com/curbcycle/pickup-platform/internal/profiles"
	"github.com/curbcycle/pickup-platform/internal/signup"
)

type fakeNotifier struct {
	templates []string
	data      []map[string]string
	rcpts     []notify.Recipient
	err       error
}

func (f *fakeNotifier) Send(_ context.Context, templateID string, rcpt notify.Recipient, data map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.templates = append(f.templates, templateID)
	f.rcpts = append(f.rcpts, rcpt)
	f.data = append(f.data, data)
	return nil
}

func (f *fakeNotifier) lastCode() string {
	if len(f.data) == 0 {
		return ""
	}
	return f.data[len(f.data)-1]["Code"]
}

type fakeRegistrar struct {
	profile   profiles.Profile
	schedules []profiles.ServiceSchedule
	calls     int
	err       error
}

func (f *fakeRegistrar) RegisterSchedules(_ context.Context, p profiles.Profile, schedules []profiles.ServiceSchedule) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.calls++
	f.profile = p
	f.schedules = schedules
	return uuid.New(), nil
}

type flowFixture struct {
	flow      *Flow
	sessions  *SessionStore
	forms     *handoff.Store
	notifier  *fakeNotifier
	registrar *fakeRegistrar
	mr        *miniredis.Miniredis
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := NewSessionStore(client, 15*time.Minute)
	forms := handoff.NewStore(client, time.Hour, nil)
	notifier := &fakeNotifier{}
	registrar := &fakeRegistrar{}
	return &flowFixture{
		flow:      NewFlow(sessions, forms, registrar, notifier, nil, nil),
		sessions:  sessions,
		forms:     forms,
		notifier:  notifier,
		registrar: registrar,
		mr:        mr,
	}
}

func (fx *flowFixture) seedForm(t *testing.T, sessionID string) {
	t.Helper()
	c := signup.NewController()
	c.ToggleService(pricing.ServiceTrash, true)
	c.SetPickupDay(pricing.ServiceTrash, "Monday")
	c.ToggleService(pricing.ServiceRecycling, true)
	c.ChangeFrequency(pricing.ServiceRecycling, pricing.FrequencyBiweekly)
	require.NoError(t, fx.forms.Put(context.Background(), sessionID, handoff.KindFormState, c.State()))
}

func TestStartSendsSixDigitCode(t *testing.T) {
	fx := newFlowFixture(t)
	sess, err := fx.flow.Start(context.Background(), StartRequest{
		SessionID: "s1", Name: "Pat", Email: "pat@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingCode, sess.Status)
	require.Len(t, fx.notifier.templates, 1)
	assert.Equal(t, notify.TemplateVerificationCode, fx.notifier.templates[0])
	assert.Regexp(t, `^\d{6}$`, fx.notifier.lastCode())
	assert.Equal(t, "15", fx.notifier.data[0]["ExpiresMinutes"])
}

func TestStartDeliveryFailureLeavesNoSession(t *testing.T) {
	fx := newFlowFixture(t)
	fx.notifier.err = assert.AnError

	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.Error(t, err)

	// An undelivered code must not leave an awaiting session behind.
	_, err = fx.sessions.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestStartRequiresContact(t *testing.T) {
	fx := newFlowFixture(t)
	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1"})
	assert.Error(t, err)
}

func TestVerifyWrongThenRight(t *testing.T) {
	fx := newFlowFixture(t)
	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.NoError(t, err)
	code := fx.notifier.lastCode()

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	_, err = fx.flow.Verify(context.Background(), "s1", wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)
	_, err = fx.flow.Verify(context.Background(), "s1", wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)

	sess, err := fx.flow.Verify(context.Background(), "s1", code)
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, sess.Status)
}

func TestVerifyLockoutAfterMaxAttempts(t *testing.T) {
	fx := newFlowFixture(t)
	fx.flow.WithMaxAttempts(3)
	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.NoError(t, err)
	code := fx.notifier.lastCode()

	wrong := "999999"
	if wrong == code {
		wrong = "999998"
	}
	_, err = fx.flow.Verify(context.Background(), "s1", wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)
	_, err = fx.flow.Verify(context.Background(), "s1", wrong)
	assert.ErrorIs(t, err, ErrCodeMismatch)
	_, err = fx.flow.Verify(context.Background(), "s1", wrong)
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	// Even the right code is refused once locked.
	_, err = fx.flow.Verify(context.Background(), "s1", code)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestResendIssuesFreshCodeAndResetsAttempts(t *testing.T) {
	fx := newFlowFixture(t)
	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.NoError(t, err)
	first := fx.notifier.lastCode()

	wrong := "000000"
	if wrong == first {
		wrong = "000001"
	}
	_, _ = fx.flow.Verify(context.Background(), "s1", wrong)

	_, err = fx.flow.Resend(context.Background(), "s1")
	require.NoError(t, err)

	sess, err := fx.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Zero(t, sess.Attempts)
	assert.Equal(t, fx.notifier.lastCode(), sess.Code)
}

func TestVerifyExpiredSession(t *testing.T) {
	fx := newFlowFixture(t)
	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.NoError(t, err)

	fx.mr.FastForward(16 * time.Minute)
	_, err = fx.flow.Verify(context.Background(), "s1", "123456")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompletePersistsProfileAndSchedules(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seedForm(t, "s1")
	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Name: "Pat", Email: "pat@example.com", Phone: "+15550100"})
	require.NoError(t, err)

	_, err = fx.flow.Verify(context.Background(), "s1", fx.notifier.lastCode())
	require.NoError(t, err)

	sess, err := fx.flow.Complete(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sess.Status)

	assert.Equal(t, 1, fx.registrar.calls)
	assert.Equal(t, "pat@example.com", fx.registrar.profile.Email)
	require.Len(t, fx.registrar.schedules, 2)

	// Welcome notification went out after the code email.
	assert.Equal(t, notify.TemplateWelcome, fx.notifier.templates[len(fx.notifier.templates)-1])

	// Session is gone afterwards.
	_, err = fx.sessions.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompleteSkipsPartialSelections(t *testing.T) {
	fx := newFlowFixture(t)

	// Trash never gets a pickup day, compost is switched back to no
	// cadence. Only the fully specified recycling selection may persist.
	c := signup.NewController()
	c.ToggleService(pricing.ServiceTrash, true)
	c.ToggleService(pricing.ServiceRecycling, true)
	c.SetPickupDay(pricing.ServiceRecycling, "Tuesday")
	c.ToggleService(pricing.ServiceCompost, true)
	c.ChangeFrequency(pricing.ServiceCompost, pricing.FrequencyNone)
	require.NoError(t, fx.forms.Put(context.Background(), "s1", handoff.KindFormState, c.State()))

	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.NoError(t, err)
	_, err = fx.flow.Verify(context.Background(), "s1", fx.notifier.lastCode())
	require.NoError(t, err)
	_, err = fx.flow.Complete(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, fx.registrar.schedules, 1)
	assert.Equal(t, pricing.ServiceRecycling, fx.registrar.schedules[0].Service)
	assert.Equal(t, pricing.FrequencyWeekly, fx.registrar.schedules[0].Frequency)
	assert.Equal(t, "Tuesday", fx.registrar.schedules[0].PickupDay)
}

func TestCompleteBeforeVerifyRefused(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seedForm(t, "s1")
	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.NoError(t, err)

	_, err = fx.flow.Complete(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestCompleteKeepsSessionOnPersistFailure(t *testing.T) {
	fx := newFlowFixture(t)
	fx.seedForm(t, "s1")
	fx.registrar.err = assert.AnError

	_, err := fx.flow.Start(context.Background(), StartRequest{SessionID: "s1", Email: "pat@example.com"})
	require.NoError(t, err)
	_, err = fx.flow.Verify(context.Background(), "s1", fx.notifier.lastCode())
	require.NoError(t, err)

	_, err = fx.flow.Complete(context.Background(), "s1")
	require.Error(t, err)

	sess, err := fx.sessions.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, sess.Status, "retry stays possible")
}
