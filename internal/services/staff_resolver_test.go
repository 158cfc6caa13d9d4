package services

import (
	"testing"
	"time"

	"lengolf_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashPin(t *testing.T, pin string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestResolvePinVerifiesAgainstDirectory(t *testing.T) {
	repo := &fakeStaffRepo{staff: []models.StaffMember{
		{ID: 1, DisplayName: "Alice", PinHash: hashPin(t, "1234"), Role: "Staff", IsActive: true},
		{ID: 2, DisplayName: "Bob", PinHash: hashPin(t, "5678"), Role: "Admin", IsActive: true},
	}}
	resolver := NewStaffResolver(repo, NewPinCache(StaffCacheTTL, nil))

	staffID, err := resolver.ResolvePin("5678")
	require.NoError(t, err)
	assert.Equal(t, int64(2), staffID)

	_, err = resolver.ResolvePin("0000")
	assert.ErrorIs(t, err, ErrInvalidStaffPin)
}

func TestResolvePinRejectsEmptyPinWithoutDirectoryCall(t *testing.T) {
	repo := &fakeStaffRepo{}
	resolver := NewStaffResolver(repo, nil)

	_, err := resolver.ResolvePin("")
	assert.ErrorIs(t, err, ErrInvalidStaffPin)
	assert.Zero(t, repo.activeCalls)
}

func TestResolvePinIgnoresInactiveStaff(t *testing.T) {
	repo := &fakeStaffRepo{staff: []models.StaffMember{
		{ID: 1, PinHash: hashPin(t, "1234"), IsActive: false},
	}}
	resolver := NewStaffResolver(repo, nil)

	_, err := resolver.ResolvePin("1234")
	assert.ErrorIs(t, err, ErrInvalidStaffPin)
}

func TestResolvePinCachesUntilTTL(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	repo := &fakeStaffRepo{staff: []models.StaffMember{
		{ID: 7, PinHash: hashPin(t, "1234"), IsActive: true},
	}}
	resolver := NewStaffResolver(repo, NewPinCache(StaffCacheTTL, clock.Now))

	staffID, err := resolver.ResolvePin("1234")
	require.NoError(t, err)
	assert.Equal(t, int64(7), staffID)
	assert.Equal(t, 1, repo.activeCalls)

	// Second resolve inside the TTL hits the cache.
	clock.Advance(4 * time.Minute)
	staffID, err = resolver.ResolvePin("1234")
	require.NoError(t, err)
	assert.Equal(t, int64(7), staffID)
	assert.Equal(t, 1, repo.activeCalls)

	// Past the TTL the directory is consulted again.
	clock.Advance(2 * time.Minute)
	staffID, err = resolver.ResolvePin("1234")
	require.NoError(t, err)
	assert.Equal(t, int64(7), staffID)
	assert.Equal(t, 2, repo.activeCalls)
}

func TestResolveID(t *testing.T) {
	repo := &fakeStaffRepo{staff: []models.StaffMember{
		{ID: 1, IsActive: true},
		{ID: 2, IsActive: false},
	}}
	resolver := NewStaffResolver(repo, nil)

	staffID, err := resolver.ResolveID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), staffID)

	_, err = resolver.ResolveID(2)
	assert.ErrorIs(t, err, ErrInvalidStaffPin)

	_, err = resolver.ResolveID(99)
	assert.ErrorIs(t, err, ErrStaffNotFound)
}
