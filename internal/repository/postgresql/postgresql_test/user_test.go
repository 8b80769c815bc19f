package postgresqltest

import (
	"context"
	"testing"

	"github.com/groupmeal/groupmeal-backend/internal/domain/user"
	"github.com/groupmeal/groupmeal-backend/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Upsert(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := postgresql.NewUserRepository(testSetup.DB)

	t.Run("creates with default role", func(t *testing.T) {
		u, err := repo.Upsert(ctx, user.IdentityProfile{ExternalID: "user_1", Email: "a@example.com", DisplayName: "Ann"})
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		assert.Equal(t, user.RoleEmployee, u.Role)
		assert.Nil(t, u.CompanyID)
	})

	t.Run("refreshes profile and keeps role when absent", func(t *testing.T) {
		manager := user.RoleManager
		_, err := repo.Upsert(ctx, user.IdentityProfile{ExternalID: "user_2", Email: "b@example.com", Role: &manager})
		require.NoError(t, err)

		u, err := repo.Upsert(ctx, user.IdentityProfile{ExternalID: "user_2", Email: "b2@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "b2@example.com", u.Email)
		assert.Equal(t, user.RoleManager, u.Role)
	})

	t.Run("delete by external id", func(t *testing.T) {
		require.NoError(t, repo.DeleteByExternalID(ctx, "user_1"))
		_, err := repo.GetByExternalID(ctx, "user_1")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}
