package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/brewtab/cafe-backend/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))
	return &GormRepo{DB: db}
}

func row(digest, jti string, expiresAt time.Time) *models.RefreshToken {
	return &models.RefreshToken{
		Digest:    digest,
		JTI:       jti,
		AdminID:   1,
		ExpiresAt: expiresAt.Unix(),
	}
}

func TestRotateRefreshToken(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	require.NoError(t, r.AddRefreshToken(ctx, row("old-digest", "jti-1", future)))

	require.NoError(t, r.RotateRefreshToken(ctx, "old-digest", row("new-digest", "jti-2", future)))

	ok, err := r.RefreshInAllowList(ctx, "old-digest")
	require.NoError(t, err)
	assert.False(t, ok, "the consumed entry must be gone")

	ok, err = r.RefreshInAllowList(ctx, "new-digest")
	require.NoError(t, err)
	assert.True(t, ok)

	// second rotation of the same digest loses
	err = r.RotateRefreshToken(ctx, "old-digest", row("another", "jti-3", future))
	require.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRotateRejectsExpiredEntry(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.AddRefreshToken(ctx, row("stale", "jti-1", time.Now().Add(-time.Minute))))

	err := r.RotateRefreshToken(ctx, "stale", row("next", "jti-2", time.Now().Add(time.Hour)))
	require.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRotateFailureKeepsOldEntry(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	require.NoError(t, r.AddRefreshToken(ctx, row("old", "jti-1", future)))
	require.NoError(t, r.AddRefreshToken(ctx, row("taken", "jti-2", future)))

	// inserting a duplicate digest fails and the transaction rolls back
	err := r.RotateRefreshToken(ctx, "old", row("taken", "jti-3", future))
	require.Error(t, err)

	ok, err := r.RefreshInAllowList(ctx, "old")
	require.NoError(t, err)
	assert.True(t, ok, "a failed rotation must not consume the old entry")
}

func TestDeleteRefreshByDigestIdempotent(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	require.NoError(t, r.AddRefreshToken(ctx, row("d1", "jti-1", time.Now().Add(time.Hour))))
	require.NoError(t, r.DeleteRefreshByDigest(ctx, "d1"))
	require.NoError(t, r.DeleteRefreshByDigest(ctx, "d1"))
	require.NoError(t, r.DeleteRefreshByDigest(ctx, "never-existed"))
}

func TestDeleteRefreshByAdmin(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	future := time.Now().Add(time.Hour)

	require.NoError(t, r.AddRefreshToken(ctx, row("d1", "jti-1", future)))
	require.NoError(t, r.AddRefreshToken(ctx, row("d2", "jti-2", future)))

	other := row("d3", "jti-3", future)
	other.AdminID = 2
	require.NoError(t, r.AddRefreshToken(ctx, other))

	require.NoError(t, r.DeleteRefreshByAdmin(ctx, 1))

	var count int64
	require.NoError(t, r.DB.Model(&models.RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
