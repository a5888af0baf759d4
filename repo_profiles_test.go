package hostel_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	hostel "github.com/hostelhub/go-hostel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesCreateFromSeed(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	created, err := repo.Profiles().CreateFromSeed(ctx, userID, hostel.ProfileSeed{
		Email:     "  ana@example.com ",
		FirstName: "Ana",
		LastName:  "Torres",
	})
	require.NoError(t, err)

	assert.Equal(t, userID, created.ID)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, hostel.RoleGuest, created.Role)

	found, err := repo.Profiles().GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", found.FirstName)
}

func TestProfilesCreateFromSeedConflict(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Profiles().CreateFromSeed(ctx, userID, hostel.ProfileSeed{Email: "ana@example.com"})
	require.NoError(t, err)

	// Same user id again: the loser of a first-login race lands here.
	_, err = repo.Profiles().CreateFromSeed(ctx, userID, hostel.ProfileSeed{Email: "ana@example.com"})
	require.Error(t, err)
	assert.True(t, hostel.IsProfileConflict(err))
}

func TestProfilesCreateFromSeedRequiresUserID(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Profiles().CreateFromSeed(context.Background(), uuid.Nil, hostel.ProfileSeed{})
	assert.Error(t, err)
}

func TestProfilesGetByUserIDNotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Profiles().GetByUserID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, hostel.IsProfileNotFound(err))
}

func TestProfilesUpdateContact(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Profiles().CreateFromSeed(ctx, userID, hostel.ProfileSeed{Email: "ana@example.com"})
	require.NoError(t, err)

	updated, err := repo.Profiles().UpdateContact(ctx, userID, "Ana", "Torres", "(212) 555-0187")
	require.NoError(t, err)

	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "Torres", updated.LastName)
	// Phone numbers are stored in E.164 regardless of input formatting.
	assert.Equal(t, "+12125550187", updated.Phone)
}

func TestProfilesUpdateContactRejectsBadPhone(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Profiles().CreateFromSeed(ctx, userID, hostel.ProfileSeed{Email: "ana@example.com"})
	require.NoError(t, err)

	_, err = repo.Profiles().UpdateContact(ctx, userID, "Ana", "Torres", "not-a-phone")
	assert.Error(t, err)

	// An empty phone is fine; the field is optional.
	_, err = repo.Profiles().UpdateContact(ctx, userID, "Ana", "Torres", "")
	assert.NoError(t, err)
}

func TestProfilesSetRole(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.Profiles().CreateFromSeed(ctx, userID, hostel.ProfileSeed{Email: "ana@example.com"})
	require.NoError(t, err)

	updated, err := repo.Profiles().SetRole(ctx, userID, hostel.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, hostel.RoleAdmin, updated.Role)

	_, err = repo.Profiles().SetRole(ctx, userID, "wizard")
	assert.Error(t, err)
}

func TestProfilesListByRole(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Profiles().CreateFromSeed(ctx, uuid.New(), hostel.ProfileSeed{Email: uuid.NewString() + "@example.com"})
		require.NoError(t, err)
	}

	adminID := uuid.New()
	_, err := repo.Profiles().CreateFromSeed(ctx, adminID, hostel.ProfileSeed{Email: "admin@example.com"})
	require.NoError(t, err)
	_, err = repo.Profiles().SetRole(ctx, adminID, hostel.RoleAdmin)
	require.NoError(t, err)

	all, err := repo.Profiles().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	admins, err := repo.Profiles().ListAll(ctx, hostel.ProfilesByRole(hostel.RoleAdmin))
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, adminID, admins[0].ID)
}
