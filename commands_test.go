package hostel_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	hostel "github.com/hostelhub/go-hostel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupRepo(t *testing.T) hostel.RepositoryManager {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	for _, model := range []any{(*hostel.Profile)(nil), (*hostel.Room)(nil), (*hostel.Stay)(nil)} {
		_, err := db.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	repo := hostel.NewRepositoryManager(db)
	require.NoError(t, repo.Validate())
	return repo
}

func createRoom(t *testing.T, repo hostel.RepositoryManager, number string, status hostel.RoomStatus) *hostel.Room {
	t.Helper()

	room, err := repo.Rooms().Create(context.Background(), &hostel.Room{
		ID:       uuid.New(),
		Number:   number,
		Type:     "dorm",
		Capacity: 6,
		Status:   status,
	})
	require.NoError(t, err)
	return room
}

func TestCheckInAvailableRoom(t *testing.T) {
	repo := setupRepo(t)
	room := createRoom(t, repo, "101", hostel.RoomAvailable)
	ctx := context.Background()

	expected := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	stay, err := hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:           room.ID,
		GuestName:        "  Marco Rossi ",
		GuestEmail:       "marco@example.com",
		ExpectedCheckout: &expected,
	})
	require.NoError(t, err)

	assert.Equal(t, "Marco Rossi", stay.GuestName)
	assert.Equal(t, room.ID, stay.RoomID)
	assert.True(t, strings.HasPrefix(stay.Reference, "STY-"))
	assert.True(t, stay.IsActive())
	require.NotNil(t, stay.CheckedInAt)

	updated, err := repo.Rooms().GetByID(ctx, room.ID.String())
	require.NoError(t, err)
	assert.Equal(t, hostel.RoomOccupied, updated.Status)

	active, err := repo.Stays().ActiveForRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, stay.Reference, active.Reference)
}

func TestCheckInRejectsUnavailableRoom(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	for _, status := range []hostel.RoomStatus{hostel.RoomOccupied, hostel.RoomCleaning, hostel.RoomMaintenance} {
		room := createRoom(t, repo, "room-"+status, status)

		_, err := hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
			RoomID:    room.ID,
			GuestName: "Marco Rossi",
		})
		require.Error(t, err, status)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, hostel.TextCodeRoomUnavailable, richErr.TextCode)
	}
}

func TestCheckInRejectsRoomWithOpenStay(t *testing.T) {
	repo := setupRepo(t)
	room := createRoom(t, repo, "101", hostel.RoomAvailable)
	ctx := context.Background()

	_, err := hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:    room.ID,
		GuestName: "Marco Rossi",
	})
	require.NoError(t, err)

	_, err = hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:    room.ID,
		GuestName: "Lena Fischer",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, hostel.TextCodeRoomUnavailable, richErr.TextCode)
}

func TestCheckInRequiresGuestName(t *testing.T) {
	repo := setupRepo(t)
	room := createRoom(t, repo, "101", hostel.RoomAvailable)

	_, err := hostel.NewCheckInHandler(repo).Execute(context.Background(), hostel.CheckInMessage{
		RoomID:    room.ID,
		GuestName: "   ",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
}

func TestCheckInUnknownRoom(t *testing.T) {
	repo := setupRepo(t)

	_, err := hostel.NewCheckInHandler(repo).Execute(context.Background(), hostel.CheckInMessage{
		RoomID:    uuid.New(),
		GuestName: "Marco Rossi",
	})
	assert.Error(t, err)
}

func TestCheckInCancelledContext(t *testing.T) {
	repo := setupRepo(t)
	room := createRoom(t, repo, "101", hostel.RoomAvailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:    room.ID,
		GuestName: "Marco Rossi",
	})
	assert.Error(t, err)
}

func TestCheckOutActiveStay(t *testing.T) {
	repo := setupRepo(t)
	room := createRoom(t, repo, "101", hostel.RoomAvailable)
	ctx := context.Background()

	checkedIn, err := hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:    room.ID,
		GuestName: "Marco Rossi",
	})
	require.NoError(t, err)

	stay, err := hostel.NewCheckOutHandler(repo).Execute(ctx, hostel.CheckOutMessage{RoomID: room.ID})
	require.NoError(t, err)
	assert.False(t, stay.IsActive())

	closed, err := repo.Stays().GetByID(ctx, checkedIn.ID.String())
	require.NoError(t, err)
	assert.False(t, closed.IsActive())
	require.NotNil(t, closed.CheckedOutAt)

	updated, err := repo.Rooms().GetByID(ctx, room.ID.String())
	require.NoError(t, err)
	assert.Equal(t, hostel.RoomCleaning, updated.Status)

	// The room is free for the next guest once housekeeping resets it.
	_, err = repo.Rooms().SetStatus(ctx, room.ID, hostel.RoomAvailable)
	require.NoError(t, err)

	_, err = hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:    room.ID,
		GuestName: "Lena Fischer",
	})
	assert.NoError(t, err)
}

func TestCheckOutWithoutActiveStay(t *testing.T) {
	repo := setupRepo(t)
	room := createRoom(t, repo, "101", hostel.RoomAvailable)

	_, err := hostel.NewCheckOutHandler(repo).Execute(context.Background(), hostel.CheckOutMessage{RoomID: room.ID})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, hostel.TextCodeNoActiveStay, richErr.TextCode)
}

func TestStayReferencesAreUniquePerCheckIn(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	first := createRoom(t, repo, "101", hostel.RoomAvailable)
	second := createRoom(t, repo, "102", hostel.RoomAvailable)

	one, err := hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:    first.ID,
		GuestName: "Marco Rossi",
	})
	require.NoError(t, err)

	two, err := hostel.NewCheckInHandler(repo).Execute(ctx, hostel.CheckInMessage{
		RoomID:    second.ID,
		GuestName: "Marco Rossi",
	})
	require.NoError(t, err)

	assert.NotEqual(t, one.Reference, two.Reference)
}
