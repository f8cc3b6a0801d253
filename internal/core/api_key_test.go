package core

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quimera/domains/internal/apperror"
)

func TestAPIKeyService_Create(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(insertedTag, nil)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*time.Time)) = now
		return nil
	}})

	key, rawKey, err := svc.Create(ctx, "owner-1", "ci deploys")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawKey, "dom_"))
	assert.Len(t, rawKey, 4+64)
	assert.Equal(t, rawKey[:12], key.KeyPrefix)
	assert.Equal(t, "owner-1", key.OwnerID)
	assert.Empty(t, key.KeyHash)
	db.AssertExpectations(t)
}

func TestAPIKeyService_Authenticate_Success(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "test-key-1"
		*(dest[1].(*string)) = "owner-1"
		*(dest[2].(*string)) = "ci deploys"
		*(dest[3].(*string)) = "dom_deadbeef"
		*(dest[4].(*time.Time)) = now
		*(dest[5].(**time.Time)) = nil
		return nil
	}})

	key, err := svc.Authenticate(ctx, "dom_deadbeefdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", key.OwnerID)
}

func TestAPIKeyService_Authenticate_Unknown(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		return pgx.ErrNoRows
	}})

	_, err := svc.Authenticate(ctx, "dom_nosuchkey")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}

func TestAPIKeyService_Authenticate_Revoked(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond)
	revoked := now.Add(-time.Hour)
	db.On("QueryRow", ctx, mock.AnythingOfType("string"), mock.Anything).Return(&mockRow{scanFunc: func(dest ...any) error {
		*(dest[0].(*string)) = "test-key-1"
		*(dest[1].(*string)) = "owner-1"
		*(dest[2].(*string)) = "old key"
		*(dest[3].(*string)) = "dom_deadbeef"
		*(dest[4].(*time.Time)) = now
		*(dest[5].(**time.Time)) = &revoked
		return nil
	}})

	// Revoked keys are indistinguishable from unknown ones.
	_, err := svc.Authenticate(ctx, "dom_deadbeefdeadbeef")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindPermissionDenied))
}

func TestAPIKeyService_Revoke(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(insertedTag, nil)

	err := svc.Revoke(ctx, "owner-1", "test-key-1")
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestAPIKeyService_Revoke_NotFound(t *testing.T) {
	db := &mockDB{}
	svc := NewAPIKeyService(db)
	ctx := context.Background()

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.Anything).Return(noRowsTag, nil)

	err := svc.Revoke(ctx, "owner-1", "already-revoked")
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
}
