package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		conn.Close()
	})
	db := New(conn)
	db.now = func() time.Time { return fixedNow }
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestListTracked(t *testing.T) {
	db, mock := newMockDB(t)
	expires := fixedNow.Add(48 * time.Hour)

	rows := sqlmock.NewRows([]string{"resource_id", "owner_id", "expires_at", "suspended", "auto_renew", "updated_at"}).
		AddRow("12", "u1", expires, false, true, fixedNow).
		AddRow("13", "u2", nil, true, false, fixedNow)
	mock.ExpectQuery(q("FROM tracked_resources ORDER BY resource_id")).WillReturnRows(rows)

	got, err := db.ListTracked(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	require.NotNil(t, got[0].ExpiresAt)
	assert.True(t, expires.Equal(*got[0].ExpiresAt))
	assert.True(t, got[0].AutoRenew)
	assert.Nil(t, got[1].ExpiresAt)
	assert.True(t, got[1].Suspended)
}

func TestListTrackedQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(q("FROM tracked_resources")).WillReturnError(errors.New("connection refused"))

	_, err := db.ListTracked(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "couldn't list tracked resources")
}

func TestGetTrackedNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(q("WHERE resource_id = $1")).WithArgs("99").WillReturnError(sql.ErrNoRows)

	_, err := db.GetTracked(context.Background(), "99")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveTrackedIsSingleUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	expires := fixedNow.Add(time.Hour)

	mock.ExpectExec(q("ON CONFLICT (resource_id) DO UPDATE")).
		WithArgs("12", "u1", expires, true, false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := &models.TrackedResource{ResourceID: "12", OwnerID: "u1", ExpiresAt: &expires, Suspended: true}
	require.NoError(t, db.SaveTracked(context.Background(), r))
	assert.Equal(t, fixedNow, r.UpdatedAt)
}

func TestSetAutoRenew(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(q("UPDATE tracked_resources SET auto_renew")).
		WithArgs("12", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.SetAutoRenew(context.Background(), "12", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetSuspended(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(q("UPDATE tracked_resources SET suspended = $2")).
		WithArgs("12", false, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE tracked_resources SET suspended = $2")).
		WithArgs("missing", true, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.SetSuspended(context.Background(), "12", false))
	assert.ErrorIs(t, db.SetSuspended(context.Background(), "missing", true), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRenewWithDebit(t *testing.T) {
	newExpiry := fixedNow.Add(7 * 24 * time.Hour)

	testCases := []struct {
		name    string
		cost    int64
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "commits debit and expiry together",
			cost: 100,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(q("UPDATE user_balances SET coins = coins - $2")).
					WithArgs("u1", int64(100)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(q("UPDATE tracked_resources SET expires_at = $2, updated_at = $3 WHERE resource_id = $1")).
					WithArgs("12", newExpiry, fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "insufficient balance rolls back",
			cost: 100,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(q("UPDATE user_balances")).
					WithArgs("u1", int64(100)).
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: ErrInsufficientCoins,
		},
		{
			name: "free renewal skips the debit",
			cost: 0,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(q("UPDATE tracked_resources")).
					WithArgs("12", newExpiry, fixedNow).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "untracked resource rolls back",
			cost: 10,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(q("UPDATE user_balances")).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(q("UPDATE tracked_resources")).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectRollback()
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.setup(mock)

			err := db.RenewWithDebit(context.Background(), "12", "u1", tc.cost, newExpiry)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBalances(t *testing.T) {
	t.Run("missing row is zero", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("SELECT coins FROM user_balances")).WithArgs("u1").WillReturnError(sql.ErrNoRows)

		coins, err := db.GetBalance(context.Background(), "u1")
		require.NoError(t, err)
		assert.Zero(t, coins)
	})

	t.Run("credit upserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("INSERT INTO user_balances")).
			WithArgs("u1", int64(50)).
			WillReturnRows(sqlmock.NewRows([]string{"coins"}).AddRow(int64(150)))

		coins, err := db.AdjustCoins(context.Background(), "u1", 50)
		require.NoError(t, err)
		assert.Equal(t, int64(150), coins)
	})

	t.Run("debit below zero fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(q("UPDATE user_balances SET coins = coins + $2")).
			WithArgs("u1", int64(-500)).
			WillReturnError(sql.ErrNoRows)

		_, err := db.AdjustCoins(context.Background(), "u1", -500)
		assert.ErrorIs(t, err, ErrInsufficientCoins)
	})
}

func TestSubscriptions(t *testing.T) {
	columns := []string{"id", "name", "target_url", "event_types", "enabled", "created_at", "updated_at"}

	t.Run("list enabled decodes event types", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.New()
		mock.ExpectQuery(q("FROM webhook_subscriptions WHERE enabled = true")).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(id.String(), "ops", "https://discord.com/api/webhooks/1/x", "{resource.created,*}", true, fixedNow, fixedNow))

		subs, err := db.ListEnabledSubscriptions(context.Background())
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, id, subs[0].ID)
		assert.Equal(t, []string{"resource.created", "*"}, subs[0].EventTypes)
	})

	t.Run("create assigns an id", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(q("INSERT INTO webhook_subscriptions")).
			WithArgs(sqlmock.AnyArg(), "ops", "https://example.com/hook", pq.Array([]string{"*"}), true, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := &models.WebhookSubscription{Name: "ops", TargetURL: "https://example.com/hook", EventTypes: []string{"*"}, Enabled: true}
		require.NoError(t, db.CreateSubscription(context.Background(), s))
		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.Equal(t, fixedNow, s.CreatedAt)
	})

	t.Run("delete missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.New()
		mock.ExpectExec(q("DELETE FROM webhook_subscriptions")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, db.DeleteSubscription(context.Background(), id), ErrNotFound)
	})

	t.Run("toggle", func(t *testing.T) {
		db, mock := newMockDB(t)
		id := uuid.New()
		mock.ExpectExec(q("SET enabled = NOT enabled")).WithArgs(id, fixedNow).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, db.ToggleSubscription(context.Background(), id))
	})
}

func TestLogDelivery(t *testing.T) {
	db, mock := newMockDB(t)
	subID := uuid.New()
	status := 204

	mock.ExpectExec(q("INSERT INTO webhook_deliveries")).
		WithArgs(sqlmock.AnyArg(), subID, "resource.created", 1, status, true, "", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	d := &models.DeliveryLog{SubscriptionID: subID, EventType: "resource.created", Attempts: 1, StatusCode: &status, Success: true}
	require.NoError(t, db.LogDelivery(context.Background(), d))
	assert.NotEqual(t, uuid.Nil, d.ID)
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(up)
	require.NoError(t, err)
	up.Close()
	for _, table := range []string{"tracked_resources", "user_balances", "webhook_subscriptions", "webhook_deliveries"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}

	down, _, err := src.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}
