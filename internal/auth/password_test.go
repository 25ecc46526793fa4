package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/trading-dashboard/internal/apperror"
)

func TestHash_LengthLimits(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantMsg  string // empty when the password is accepted
	}{
		{"empty", "", "Password must be at least 6 characters"},
		{"five characters", "hunt2", "Password must be at least 6 characters"},
		{"six characters", "hunt22", ""},
		{"six spaces", "      ", ""},
		{"cyrillic, counted in bytes", "пар", ""},
		{"72 bytes", strings.Repeat("a", MaxPasswordBytes), ""},
		{"73 bytes", strings.Repeat("a", MaxPasswordBytes+1), "Password must be 72 bytes or fewer"},
		{"24 three-byte runes", strings.Repeat("密", 24), ""},
		{"25 three-byte runes", strings.Repeat("密", 25), "Password must be 72 bytes or fewer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := ps.Hash(tt.password)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.NoError(t, ps.Verify(hash, tt.password))
				return
			}
			require.ErrorIs(t, err, apperror.ErrValidation)
			var ae *apperror.AppError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, "password", ae.Field)
			assert.Equal(t, tt.wantMsg, ae.Message)
			assert.Empty(t, hash)
		})
	}
}

func TestHash_SaltsAndCost(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)

	a, err := ps.Hash("hunter22")
	require.NoError(t, err)
	b, err := ps.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "each hash gets its own salt")

	cost, err := bcrypt.Cost([]byte(a))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.Equal(t, defaultCost, NewPasswordService().cost)
}

func TestVerify(t *testing.T) {
	ps := NewPasswordServiceForTest(bcrypt.MinCost)
	hash, err := ps.Hash("hunter22")
	require.NoError(t, err)

	assert.NoError(t, ps.Verify(hash, "hunter22"))
	assert.ErrorIs(t, ps.Verify(hash, "Hunter22"), ErrInvalidPassword)
	assert.ErrorIs(t, ps.Verify(hash, "hunter22 "), ErrInvalidPassword)
	assert.ErrorIs(t, ps.Verify(hash, ""), ErrInvalidPassword)

	err = ps.Verify("not-a-bcrypt-hash", "hunter22")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidPassword, "a corrupt stored hash is not a wrong password")
}

func TestVerify_HashFromAnotherCost(t *testing.T) {
	stronger := NewPasswordServiceForTest(bcrypt.MinCost + 1)
	hash, err := stronger.Hash("hunter22")
	require.NoError(t, err)

	// The cost travels inside the hash, so any service can check it.
	assert.NoError(t, NewPasswordServiceForTest(bcrypt.MinCost).Verify(hash, "hunter22"))
}
