package hostel

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CheckOutMessage struct {
	RoomID uuid.UUID `json:"room_id"`
}

func (e CheckOutMessage) Type() string { return "stay.check_out" }

// CheckOutHandler closes the room's open stay and sends the room to
// cleaning. A room with no open stay rejects the check-out with
// ErrNoActiveStay.
type CheckOutHandler struct {
	repo RepositoryManager
	now  func() time.Time
}

func NewCheckOutHandler(repo RepositoryManager) *CheckOutHandler {
	return &CheckOutHandler{
		repo: repo,
		now:  time.Now,
	}
}

func (h *CheckOutHandler) Execute(ctx context.Context, event CheckOutMessage) (*Stay, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during check-out",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CheckOutHandler) execute(ctx context.Context, event CheckOutMessage) (*Stay, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	stay := &Stay{}
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		active, err := h.repo.Stays().ActiveForRoomTx(ctx, tx, event.RoomID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.Wrap(ErrNoActiveStay, goerrors.CategoryNotFound, "room has no open stay").
					WithMetadata(map[string]any{"room_id": event.RoomID.String()})
			}
			return err
		}

		if stay, err = h.repo.Stays().CloseTx(ctx, tx, active.ID, h.now()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not close stay")
		}

		if _, err := h.repo.Rooms().SetStatusTx(ctx, tx, event.RoomID, RoomCleaning); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not send room to cleaning")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "check-out transaction failed")
	}

	return stay, nil
}
