package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Small parameters to keep the KDF fast in tests
func testHasher(t *testing.T) *Hasher {
	t.Helper()

	h, err := NewHasher(HasherConfig{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	require.NoError(t, err, "hasher should be created without errors")
	return h
}

func Test_Hasher(t *testing.T) {
	h := testHasher(t)

	t.Run("config validation", func(t *testing.T) {
		tests := []struct {
			name string
			cfg  HasherConfig
		}{
			{"low memory", HasherConfig{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
			{"zero time", HasherConfig{Memory: 8 * 1024, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
			{"short salt", HasherConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 32}},
			{"short key", HasherConfig{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewHasher(tt.cfg)
				require.Error(t, err)
			})
		}
	})

	t.Run("Hash", func(t *testing.T) {
		t.Run("produces self describing argon2id hash", func(t *testing.T) {
			hash, err := h.Hash("Str0ng!Passphrase99")

			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "hash should carry the algorithm id")
			assert.Contains(t, hash, "m=8192,t=1,p=1", "hash should embed its parameters")
		})

		t.Run("salts every hash", func(t *testing.T) {
			hash1, err := h.Hash("Str0ng!Passphrase99")
			require.NoError(t, err)
			hash2, err := h.Hash("Str0ng!Passphrase99")
			require.NoError(t, err)

			assert.NotEqual(t, hash1, hash2, "same password should never produce the same hash")
		})

		t.Run("rejects empty password", func(t *testing.T) {
			_, err := h.Hash("")
			require.Error(t, err)
		})
	})

	t.Run("Verify", func(t *testing.T) {
		t.Run("round trip", func(t *testing.T) {
			hash, err := h.Hash("Str0ng!Passphrase99")
			require.NoError(t, err)

			v, err := h.Verify(hash, "Str0ng!Passphrase99")
			require.NoError(t, err)
			assert.True(t, v.Matches)
			assert.False(t, v.NeedsRehash, "fresh hash should not need rehash")

			v, err = h.Verify(hash, "Wr0ng!Passphrase99")
			require.NoError(t, err)
			assert.False(t, v.Matches)
		})

		t.Run("empty password never matches", func(t *testing.T) {
			hash, err := h.Hash("Str0ng!Passphrase99")
			require.NoError(t, err)

			v, err := h.Verify(hash, "")
			require.NoError(t, err)
			assert.False(t, v.Matches)
		})

		t.Run("empty hash never matches", func(t *testing.T) {
			v, err := h.Verify("", "Str0ng!Passphrase99")
			require.NoError(t, err)
			assert.False(t, v.Matches)
		})

		t.Run("malformed hash", func(t *testing.T) {
			_, err := h.Verify("$argon2id$not-a-hash", "Str0ng!Passphrase99")
			require.Error(t, err)
		})

		t.Run("outdated parameters flag rehash", func(t *testing.T) {
			weaker, err := NewHasher(HasherConfig{
				Memory:      8 * 1024,
				Time:        1,
				Parallelism: 1,
				SaltLength:  16,
				KeyLength:   16,
			})
			require.NoError(t, err)

			hash, err := weaker.Hash("Str0ng!Passphrase99")
			require.NoError(t, err)

			v, err := h.Verify(hash, "Str0ng!Passphrase99")
			require.NoError(t, err)
			assert.True(t, v.Matches, "old parameters should still verify")
			assert.True(t, v.NeedsRehash, "old parameters should be flagged")
		})

		t.Run("legacy bcrypt hash", func(t *testing.T) {
			legacy, err := bcrypt.GenerateFromPassword([]byte("Str0ng!Passphrase99"), bcrypt.MinCost)
			require.NoError(t, err)

			v, err := h.Verify(string(legacy), "Str0ng!Passphrase99")
			require.NoError(t, err)
			assert.True(t, v.Matches, "bcrypt hashes should still verify")
			assert.True(t, v.NeedsRehash, "bcrypt hashes should be migrated to argon2id")

			v, err = h.Verify(string(legacy), "wrong")
			require.NoError(t, err)
			assert.False(t, v.Matches)
		})
	})
}
