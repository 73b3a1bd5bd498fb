package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrekirst/familyauth/internal/models"
	"github.com/andrekirst/familyauth/internal/testutil"
)

func Test_AuditRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("add entry with user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			user := mustCreateUser(t, tx, "audited@example.com")
			r := AuditRepo{DB: tx}

			entry, err := r.Add(t.Context(), models.AuditEntry{
				UserID:    &user.ID,
				Email:     user.Email,
				EventType: models.AuditLogin,
				Success:   true,
				IPAddress: "192.0.2.20",
				UserAgent: "test agent",
			})

			require.NoError(t, err)
			assert.NotZero(t, entry.ID)
			require.NotNil(t, entry.UserID)
			assert.Equal(t, user.ID, *entry.UserID)
			assert.Equal(t, models.AuditLogin, entry.EventType)
			assert.True(t, entry.Success)
			assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Second, "CreatedAt should be recent")
		})
	})

	t.Run("add entry without user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := AuditRepo{DB: tx}

			// Failed logins for unknown emails have no user to point at
			entry, err := r.Add(t.Context(), models.AuditEntry{
				Email:         "stranger@example.com",
				EventType:     models.AuditFailedLogin,
				Success:       false,
				FailureReason: "user not found",
				IPAddress:     "192.0.2.21",
			})

			require.NoError(t, err)
			assert.Nil(t, entry.UserID)
			assert.Equal(t, "user not found", entry.FailureReason)
		})
	})
}
