package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-ledger-api/internal/models"
)

func TestCredentialRepositoryCreateOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx)
	require.Error(t, err)

	require.NoError(t, repo.Create(ctx, &models.AdminCredential{PasscodeHash: "first"}))
	err = repo.Create(ctx, &models.AdminCredential{PasscodeHash: "second"})
	require.ErrorIs(t, err, ErrCredentialExists)

	stored, err := repo.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "first", stored.PasscodeHash)

	require.NoError(t, repo.Delete(ctx))
	_, err = repo.Get(ctx)
	require.Error(t, err)
}
