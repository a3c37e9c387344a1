package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbcycle/pickup-platform/internal/pricing"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewStore(mock), mock
}

func TestUpsertProfileReturnsID(t *testing.T) {
	store, mock := newMockStore(t)
	want := uuid.New()

	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs(pgxmock.AnyArg(), "Pat Resident", "pat@example.com", "+15550100", "12 Elm St", "30303").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(want))

	got, err := store.UpsertProfile(context.Background(), nil, Profile{
		Name:        "Pat Resident",
		Email:       "pat@example.com",
		Phone:       "+15550100",
		AddressLine: "12 Elm St",
		Zip:         "30303",
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, name, email").
		WithArgs("nobody@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "phone", "address_line", "zip", "created_at", "updated_at"}))

	_, err := store.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertServiceSchedule(t *testing.T) {
	store, mock := newMockStore(t)
	profileID := uuid.New()

	mock.ExpectExec("INSERT INTO service_schedules").
		WithArgs(pgxmock.AnyArg(), profileID, "recycling", "biweekly", 2, "Tuesday").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.UpsertServiceSchedule(context.Background(), nil, ServiceSchedule{
		ProfileID: profileID,
		Service:   pricing.ServiceRecycling,
		Frequency: pricing.FrequencyBiweekly,
		Quantity:  2,
		PickupDay: "Tuesday",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDueReminders(t *testing.T) {
	store, mock := newMockStore(t)
	scheduleID := uuid.New()
	profileID := uuid.New()

	mock.ExpectQuery("SELECT ss.id, p.id, p.name").
		WithArgs("Monday").
		WillReturnRows(pgxmock.NewRows([]string{"id", "id", "name", "email", "phone", "service_type", "pickup_day"}).
			AddRow(scheduleID, profileID, "Pat", "pat@example.com", "", "trash", "Monday"))

	got, err := store.ListDueReminders(context.Background(), "Monday")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scheduleID, got[0].ScheduleID)
	assert.Equal(t, pricing.ServiceTrash, got[0].Service)
}

func TestAlreadyLoggedAndInsert(t *testing.T) {
	store, mock := newMockStore(t)
	scheduleID := uuid.New()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(scheduleID, date).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO reminder_logs").
		WithArgs(pgxmock.AnyArg(), scheduleID, date, "email").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	logged, err := store.AlreadyLogged(context.Background(), scheduleID, date)
	require.NoError(t, err)
	assert.False(t, logged)

	require.NoError(t, store.InsertReminderLog(context.Background(), nil, scheduleID, date, "email"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterSchedulesTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	profileID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs(pgxmock.AnyArg(), "Pat", "pat@example.com", "", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(profileID))
	mock.ExpectExec("INSERT INTO service_schedules").
		WithArgs(pgxmock.AnyArg(), profileID, "trash", "weekly", 1, "Monday").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM service_schedules").
		WithArgs(profileID, []string{"trash"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCommit()

	got, err := store.RegisterSchedules(context.Background(),
		Profile{Name: "Pat", Email: "pat@example.com"},
		[]ServiceSchedule{{Service: pricing.ServiceTrash, Frequency: pricing.FrequencyWeekly, Quantity: 1, PickupDay: "Monday"}})
	require.NoError(t, err)
	assert.Equal(t, profileID, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterSchedulesRollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO profiles").
		WithArgs(pgxmock.AnyArg(), "Pat", "pat@example.com", "", "", "").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := store.RegisterSchedules(context.Background(), Profile{Name: "Pat", Email: "pat@example.com"}, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSchedulesExcept(t *testing.T) {
	store, mock := newMockStore(t)
	profileID := uuid.New()

	mock.ExpectExec("DELETE FROM service_schedules").
		WithArgs(profileID, []string{"trash", "compost"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := store.DeleteSchedulesExcept(context.Background(), nil, profileID, []string{"trash", "compost"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
