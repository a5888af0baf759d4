package hostel_test

import (
	"context"
	"testing"

	hostel "github.com/hostelhub/go-hostel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkIn(t *testing.T, repo hostel.RepositoryManager, room *hostel.Room, guest, email string) *hostel.Stay {
	t.Helper()

	stay, err := hostel.NewCheckInHandler(repo).Execute(context.Background(), hostel.CheckInMessage{
		RoomID:     room.ID,
		GuestName:  guest,
		GuestEmail: email,
	})
	require.NoError(t, err)
	return stay
}

func TestStaysListLoadsRoom(t *testing.T) {
	repo := setupRepo(t)
	room := createRoom(t, repo, "101", hostel.RoomAvailable)
	checkIn(t, repo, room, "Marco Rossi", "marco@example.com")

	records, err := repo.Stays().ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	require.NotNil(t, records[0].Room)
	assert.Equal(t, "101", records[0].Room.Number)
}

func TestStaysActiveFilter(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := createRoom(t, repo, "101", hostel.RoomAvailable)
	second := createRoom(t, repo, "102", hostel.RoomAvailable)

	checkIn(t, repo, first, "Marco Rossi", "marco@example.com")
	checkIn(t, repo, second, "Lena Fischer", "lena@example.com")

	_, err := hostel.NewCheckOutHandler(repo).Execute(ctx, hostel.CheckOutMessage{RoomID: first.ID})
	require.NoError(t, err)

	active, err := repo.Stays().ListAll(ctx, hostel.ActiveStays())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Lena Fischer", active[0].GuestName)

	count, err := repo.Stays().CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	all, err := repo.Stays().ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStaysMatching(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := createRoom(t, repo, "101", hostel.RoomAvailable)
	second := createRoom(t, repo, "102", hostel.RoomAvailable)

	marco := checkIn(t, repo, first, "Marco Rossi", "marco@example.com")
	checkIn(t, repo, second, "Lena Fischer", "lena@example.com")

	byName, err := repo.Stays().ListAll(ctx, hostel.StaysMatching("rossi"))
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Marco Rossi", byName[0].GuestName)

	byEmail, err := repo.Stays().ListAll(ctx, hostel.StaysMatching("LENA@"))
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Lena Fischer", byEmail[0].GuestName)

	byReference, err := repo.Stays().ListAll(ctx, hostel.StaysMatching(marco.Reference))
	require.NoError(t, err)
	require.Len(t, byReference, 1)
	assert.Equal(t, marco.ID, byReference[0].ID)

	blank, err := repo.Stays().ListAll(ctx, hostel.StaysMatching(""))
	require.NoError(t, err)
	assert.Len(t, blank, 2)
}
