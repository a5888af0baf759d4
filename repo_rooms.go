package hostel

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Rooms persists the room inventory.
type Rooms interface {
	repository.Repository[*Room]

	Create(ctx context.Context, record *Room, criteria ...repository.InsertCriteria) (*Room, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Room, criteria ...repository.InsertCriteria) (*Room, error)
	ListAll(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Room, error)
	GetByNumber(ctx context.Context, number string) (*Room, error)
	GetForUpdateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Room, error)
	SetStatus(ctx context.Context, id uuid.UUID, status RoomStatus) (*Room, error)
	SetStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status RoomStatus) (*Room, error)
	CountByStatus(ctx context.Context) (map[RoomStatus]int, error)
}

type rooms struct {
	repository.Repository[*Room]
	db *bun.DB
}

var (
	_ Rooms                        = (*rooms)(nil)
	_ repository.Repository[*Room] = (*rooms)(nil)
)

func NewRoomsRepository(db *bun.DB) Rooms {
	repo := repository.NewRepository[*Room](db, repository.ModelHandlers[*Room]{
		NewRecord: func() *Room { return &Room{} },
		GetID: func(r *Room) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *Room, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
		GetIdentifier: func() string {
			return "number"
		},
	})

	return &rooms{
		Repository: repo,
		db:         db,
	}
}

func (r *rooms) Create(ctx context.Context, record *Room, criteria ...repository.InsertCriteria) (*Room, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *rooms) CreateTx(ctx context.Context, tx bun.IDB, record *Room, criteria ...repository.InsertCriteria) (*Room, error) {
	prepareRoomDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// ListAll returns every matching room, ordered by number, without the paging
// the embedded repository's List carries.
func (r *rooms) ListAll(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Room, error) {
	var records []*Room

	q := r.db.NewSelect().Model(&records)
	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Order("rm.number ASC").Scan(ctx); err != nil {
		return nil, err
	}

	for _, record := range records {
		record.EnsureStatus()
	}

	return records, nil
}

func (r *rooms) GetByNumber(ctx context.Context, number string) (*Room, error) {
	record := &Room{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.number = ?", strings.TrimSpace(number)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"number": number})
		}
		return nil, err
	}

	record.EnsureStatus()
	return record, nil
}

// GetForUpdateTx reads a room on the transaction that is about to update it,
// so the availability check and the status flip see the same row. A read on
// the db handle here would not see the transaction's view and, on a
// single-connection sqlite, would block behind it.
func (r *rooms) GetForUpdateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Room, error) {
	record := &Room{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"id": id.String()})
		}
		return nil, err
	}

	record.EnsureStatus()
	return record, nil
}

func (r *rooms) SetStatus(ctx context.Context, id uuid.UUID, status RoomStatus) (*Room, error) {
	return r.SetStatusTx(ctx, r.db, id, status)
}

func (r *rooms) SetStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status RoomStatus) (*Room, error) {
	if !isValidRoomStatus(status) {
		return nil, goerrors.New("unknown room status", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"status": status})
	}

	record := &Room{
		ID:     id,
		Status: status,
	}

	return r.Repository.UpdateTx(ctx, tx, record,
		repository.UpdateByID(id.String()),
		repository.UpdateSkipZeroValues(),
	)
}

// CountByStatus aggregates the inventory for the dashboard.
func (r *rooms) CountByStatus(ctx context.Context) (map[RoomStatus]int, error) {
	var rows []struct {
		Status RoomStatus `bun:"status"`
		Total  int        `bun:"total"`
	}

	err := r.db.NewSelect().
		Model((*Room)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS total").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := map[RoomStatus]int{}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}

// RoomsByStatus narrows a room listing to one housekeeping state.
func RoomsByStatus(status RoomStatus) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.status = ?", status)
	}
}

// RoomsMatching filters rooms by a case-insensitive substring over number
// and type.
func RoomsMatching(term string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		trimmed := strings.TrimSpace(term)
		if trimmed == "" {
			return q
		}
		pattern := "%" + strings.ToLower(trimmed) + "%"
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.number) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.room_type) LIKE ?", pattern)
		})
	}
}

func prepareRoomDefaults(record *Room) {
	if record == nil {
		return
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func isValidRoomStatus(status RoomStatus) bool {
	switch status {
	case RoomAvailable, RoomOccupied, RoomCleaning, RoomMaintenance:
		return true
	}
	return false
}
