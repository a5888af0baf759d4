package hostel

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Profiles() Profiles
	Rooms() Rooms
	Stays() Stays
}

type mngr struct {
	db       *bun.DB
	profiles Profiles
	rooms    Rooms
	stays    Stays
}

func NewRepositoryManager(db *bun.DB, opts ...ProfilesOption) RepositoryManager {
	return &mngr{
		db:       db,
		profiles: NewProfilesRepository(db, opts...),
		rooms:    NewRoomsRepository(db),
		stays:    NewStaysRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.profiles == nil {
		return errors.New("repository profiles should be initialized")
	}

	if m.rooms == nil {
		return errors.New("repository rooms should be initialized")
	}

	if m.stays == nil {
		return errors.New("repository stays should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Profiles() Profiles {
	return m.profiles
}

func (m mngr) Rooms() Rooms {
	return m.rooms
}

func (m mngr) Stays() Stays {
	return m.stays
}
