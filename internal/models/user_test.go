package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_UserLockout(t *testing.T) {
	now := mustParseTime("2024-01-01 19:00:01Z")

	t.Run("RecordFailedLogin", func(t *testing.T) {
		t.Run("counts up to the threshold", func(t *testing.T) {
			u := &User{}

			for i := 1; i < 5; i++ {
				locked := u.RecordFailedLogin(now, 5, 15*time.Minute)

				require.False(t, locked, "attempt %d should not lock yet", i)
				require.Equal(t, i, u.FailedLoginCount)
				require.Nil(t, u.LockedUntil)
			}
		})

		t.Run("locks on the last attempt", func(t *testing.T) {
			u := &User{FailedLoginCount: 4}

			locked := u.RecordFailedLogin(now, 5, 15*time.Minute)

			require.True(t, locked, "5th failure should trip the lockout")
			require.NotNil(t, u.LockedUntil)
			assert.Equal(t, now.Add(15*time.Minute), *u.LockedUntil)
			assert.True(t, u.IsLockedOut(now))
		})

		t.Run("does not extend an active lockout", func(t *testing.T) {
			until := now.Add(15 * time.Minute)
			u := &User{FailedLoginCount: 5, LockedUntil: &until}

			locked := u.RecordFailedLogin(now.Add(time.Minute), 5, 15*time.Minute)

			require.False(t, locked, "failures while locked should be no-ops")
			assert.Equal(t, until, *u.LockedUntil, "lockout window should not restart")
			assert.Equal(t, 5, u.FailedLoginCount)
		})
	})

	t.Run("ClearExpiredLockout", func(t *testing.T) {
		t.Run("clears elapsed lockout and counter", func(t *testing.T) {
			until := now.Add(-time.Second)
			u := &User{FailedLoginCount: 5, LockedUntil: &until}

			changed := u.ClearExpiredLockout(now)

			require.True(t, changed)
			assert.Nil(t, u.LockedUntil)
			assert.Equal(t, 0, u.FailedLoginCount)
			assert.False(t, u.IsLockedOut(now))
		})

		t.Run("keeps active lockout", func(t *testing.T) {
			until := now.Add(time.Minute)
			u := &User{FailedLoginCount: 5, LockedUntil: &until}

			changed := u.ClearExpiredLockout(now)

			require.False(t, changed)
			assert.True(t, u.IsLockedOut(now))
		})

		t.Run("no-op without lockout", func(t *testing.T) {
			u := &User{FailedLoginCount: 2}

			changed := u.ClearExpiredLockout(now)

			require.False(t, changed)
			assert.Equal(t, 2, u.FailedLoginCount, "counter survives until lockout or success")
		})
	})

	t.Run("full trip and recovery cycle", func(t *testing.T) {
		u := &User{}

		for range 5 {
			u.RecordFailedLogin(now, 5, 15*time.Minute)
		}
		require.True(t, u.IsLockedOut(now), "5 failures with maxAttempts=5 should lock")

		// Still locked one second before expiry
		require.True(t, u.IsLockedOut(now.Add(15*time.Minute-time.Second)))

		// After expiry the pre-check clears everything
		later := now.Add(15*time.Minute + time.Second)
		u.ClearExpiredLockout(later)
		require.False(t, u.IsLockedOut(later))
		require.Equal(t, 0, u.FailedLoginCount)

		u.ResetLoginAttempts()
		require.Equal(t, 0, u.FailedLoginCount)
	})
}

func Test_UserSecrets(t *testing.T) {
	now := mustParseTime("2024-01-01 19:00:01Z")

	t.Run("reset token replaces reset code", func(t *testing.T) {
		u := &User{}
		u.SetPasswordResetCode("123456", now.Add(15*time.Minute))
		u.SetPasswordResetToken("token", now.Add(time.Hour))

		assert.True(t, u.HasValidResetToken(now))
		assert.False(t, u.HasValidResetCode(now), "setting a token should drop the code")
	})

	t.Run("expired secrets are not usable", func(t *testing.T) {
		u := &User{}
		u.SetPasswordResetToken("token", now.Add(-time.Second))

		assert.False(t, u.HasValidResetToken(now))
	})

	t.Run("ClearPasswordReset drops everything", func(t *testing.T) {
		u := &User{}
		u.SetPasswordResetToken("token", now.Add(time.Hour))
		u.ClearPasswordReset()

		assert.Nil(t, u.PasswordResetToken)
		assert.Nil(t, u.PasswordResetTokenExpiresAt)
	})

	t.Run("MarkEmailVerified consumes the token", func(t *testing.T) {
		u := &User{}
		u.SetEmailVerificationToken("token")
		u.MarkEmailVerified()

		assert.True(t, u.EmailVerified)
		assert.Nil(t, u.EmailVerificationToken)
	})
}
