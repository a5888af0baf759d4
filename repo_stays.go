package hostel

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Stays persists the check-in/check-out history.
type Stays interface {
	repository.Repository[*Stay]

	CreateTx(ctx context.Context, tx bun.IDB, record *Stay, criteria ...repository.InsertCriteria) (*Stay, error)
	ActiveForRoom(ctx context.Context, roomID uuid.UUID) (*Stay, error)
	ActiveForRoomTx(ctx context.Context, tx bun.IDB, roomID uuid.UUID) (*Stay, error)
	CloseTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*Stay, error)
	ListAll(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Stay, error)
	CountActive(ctx context.Context) (int, error)
}

type stays struct {
	repository.Repository[*Stay]
	db *bun.DB
}

var (
	_ Stays                        = (*stays)(nil)
	_ repository.Repository[*Stay] = (*stays)(nil)
)

func NewStaysRepository(db *bun.DB) Stays {
	repo := repository.NewRepository[*Stay](db, repository.ModelHandlers[*Stay]{
		NewRecord: func() *Stay { return &Stay{} },
		GetID: func(s *Stay) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Stay, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "reference"
		},
	})

	return &stays{
		Repository: repo,
		db:         db,
	}
}

func (s *stays) CreateTx(ctx context.Context, tx bun.IDB, record *Stay, criteria ...repository.InsertCriteria) (*Stay, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return s.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (s *stays) ActiveForRoom(ctx context.Context, roomID uuid.UUID) (*Stay, error) {
	return s.ActiveForRoomTx(ctx, s.db, roomID)
}

// ActiveForRoomTx returns the open stay for the room, or a record-not-found
// error when the room is empty. At most one open stay exists per room; the
// check-in command enforces that inside its transaction.
func (s *stays) ActiveForRoomTx(ctx context.Context, tx bun.IDB, roomID uuid.UUID) (*Stay, error) {
	record := &Stay{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.room_id = ?", roomID).
		Where("?TableAlias.checked_out_at IS NULL").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"room_id": roomID.String()})
		}
		return nil, err
	}

	return record, nil
}

func (s *stays) CloseTx(ctx context.Context, tx bun.IDB, id uuid.UUID, at time.Time) (*Stay, error) {
	record := &Stay{
		ID:           id,
		CheckedOutAt: &at,
	}

	return s.Repository.UpdateTx(ctx, tx, record,
		repository.UpdateByID(id.String()),
		repository.UpdateSkipZeroValues(),
	)
}

// ListAll returns every matching stay with its room loaded, newest first,
// without the paging the embedded repository's List carries.
func (s *stays) ListAll(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Stay, error) {
	var records []*Stay

	q := s.db.NewSelect().Model(&records).Relation("Room")
	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Order("sty.checked_in_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *stays) CountActive(ctx context.Context) (int, error) {
	return s.db.NewSelect().
		Model((*Stay)(nil)).
		Where("?TableAlias.checked_out_at IS NULL").
		Count(ctx)
}

// ActiveStays narrows a listing to guests still checked in.
func ActiveStays() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.checked_out_at IS NULL")
	}
}

// StaysMatching filters stays by a case-insensitive substring over guest
// name, email and stay reference.
func StaysMatching(term string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		trimmed := strings.TrimSpace(term)
		if trimmed == "" {
			return q
		}
		pattern := "%" + strings.ToLower(trimmed) + "%"
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.guest_name) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.guest_email) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.reference) LIKE ?", pattern)
		})
	}
}
