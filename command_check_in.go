package hostel

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CheckInMessage struct {
	RoomID           uuid.UUID  `json:"room_id"`
	GuestName        string     `json:"guest_name"`
	GuestEmail       string     `json:"guest_email"`
	GuestPhone       string     `json:"guest_phone"`
	GuestDocument    string     `json:"guest_document"`
	ExpectedCheckout *time.Time `json:"expected_checkout"`
}

func (e CheckInMessage) Type() string { return "stay.check_in" }

// CheckInHandler assigns a guest to a room. Inside one transaction it
// verifies the room is available and has no open stay, creates the stay and
// flips the room to occupied; a room that is occupied, cleaning or under
// maintenance rejects the check-in with ErrRoomUnavailable.
type CheckInHandler struct {
	repo RepositoryManager
	now  func() time.Time
}

func NewCheckInHandler(repo RepositoryManager) *CheckInHandler {
	return &CheckInHandler{
		repo: repo,
		now:  time.Now,
	}
}

func (h *CheckInHandler) Execute(ctx context.Context, event CheckInMessage) (*Stay, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during check-in",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CheckInHandler) execute(ctx context.Context, event CheckInMessage) (*Stay, error) {
	if strings.TrimSpace(event.GuestName) == "" {
		return nil, goerrors.New("guest name is required", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	stay := &Stay{}
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		room, err := h.repo.Rooms().GetForUpdateTx(ctx, tx, event.RoomID)
		if err != nil {
			return err
		}

		if room.Status != RoomAvailable {
			return goerrors.Wrap(ErrRoomUnavailable, goerrors.CategoryConflict, "room not available").
				WithMetadata(map[string]any{
					"room_id": room.ID.String(),
					"status":  room.Status,
				})
		}

		if _, err := h.repo.Stays().ActiveForRoomTx(ctx, tx, room.ID); err == nil {
			return goerrors.Wrap(ErrRoomUnavailable, goerrors.CategoryConflict, "room has an open stay").
				WithMetadata(map[string]any{"room_id": room.ID.String()})
		} else if !repository.IsRecordNotFound(err) {
			return err
		}

		checkedIn := h.now()
		stay.RoomID = room.ID
		stay.Reference = stayReference(room.Number, event.GuestName, checkedIn)
		stay.GuestName = strings.TrimSpace(event.GuestName)
		stay.GuestEmail = strings.TrimSpace(event.GuestEmail)
		stay.GuestPhone = strings.TrimSpace(event.GuestPhone)
		stay.GuestDocument = strings.TrimSpace(event.GuestDocument)
		stay.CheckedInAt = &checkedIn
		stay.ExpectedCheckout = event.ExpectedCheckout

		if stay, err = h.repo.Stays().CreateTx(ctx, tx, stay); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create stay")
		}

		if _, err := h.repo.Rooms().SetStatusTx(ctx, tx, room.ID, RoomOccupied); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not mark room occupied")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "check-in transaction failed")
	}

	return stay, nil
}

// stayReference derives a stable, human-shareable booking reference from the
// room, guest and check-in time.
func stayReference(roomNumber, guestName string, at time.Time) string {
	seed := fmt.Sprintf("%s|%s|%d", roomNumber, strings.ToLower(guestName), at.UnixNano())
	if id, err := hashid.NewUUID(seed); err == nil {
		short := strings.ReplaceAll(id.String(), "-", "")[:12]
		return "STY-" + strings.ToUpper(short)
	}
	return "STY-" + strings.ToUpper(uuid.NewString()[:12])
}
