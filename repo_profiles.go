package hostel

import (
	"context"
	"database/sql"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
	"github.com/uptrace/bun"
)

// Profiles persists the application-side profile records keyed by the
// identity provider's user id.
type Profiles interface {
	repository.Repository[*Profile]

	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error)
	CreateFromSeed(ctx context.Context, userID uuid.UUID, seed ProfileSeed) (*Profile, error)
	CreateFromSeedTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, seed ProfileSeed) (*Profile, error)
	UpdateContact(ctx context.Context, userID uuid.UUID, firstName, lastName, phone string) (*Profile, error)
	SetRole(ctx context.Context, userID uuid.UUID, role Role) (*Profile, error)
	ListAll(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db            *bun.DB
	defaultRegion string
}

var (
	_ Profiles                        = (*profiles)(nil)
	_ repository.Repository[*Profile] = (*profiles)(nil)
)

type ProfilesOption func(*profiles)

// WithProfilesPhoneRegion sets the region used to parse phone numbers given
// without a country prefix. Defaults to US.
func WithProfilesPhoneRegion(region string) ProfilesOption {
	return func(p *profiles) {
		if region != "" {
			p.defaultRegion = region
		}
	}
}

func NewProfilesRepository(db *bun.DB, opts ...ProfilesOption) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoProfiles := &profiles{
		Repository:    repo,
		db:            db,
		defaultRegion: "US",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoProfiles)
		}
	}

	return repoProfiles
}

func (p *profiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return p.GetByUserIDTx(ctx, p.db, userID)
}

func (p *profiles) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", userID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.Wrap(ErrProfileNotFound, goerrors.CategoryNotFound, "no profile for user").
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return nil, err
	}

	record.EnsureRole()
	return record, nil
}

// CreateFromSeed inserts the profile for a user the first time a session for
// them is observed. Inserting an id that already exists surfaces as
// ErrProfileConflict so callers can fall back to the existing row; the
// database primary key is what enforces at-most-one profile per user.
func (p *profiles) CreateFromSeed(ctx context.Context, userID uuid.UUID, seed ProfileSeed) (*Profile, error) {
	return p.CreateFromSeedTx(ctx, p.db, userID, seed)
}

func (p *profiles) CreateFromSeedTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, seed ProfileSeed) (*Profile, error) {
	if userID == uuid.Nil {
		return nil, goerrors.New("profile requires a user id", goerrors.CategoryBadInput)
	}

	record := &Profile{
		ID:        userID,
		Email:     strings.TrimSpace(seed.Email),
		FirstName: strings.TrimSpace(seed.FirstName),
		LastName:  strings.TrimSpace(seed.LastName),
		Role:      RoleGuest,
	}

	created, err := p.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, goerrors.Wrap(ErrProfileConflict, goerrors.CategoryConflict, "profile already exists").
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return nil, err
	}

	created.EnsureRole()
	return created, nil
}

func (p *profiles) UpdateContact(ctx context.Context, userID uuid.UUID, firstName, lastName, phone string) (*Profile, error) {
	normalized, err := p.normalizePhone(phone)
	if err != nil {
		return nil, err
	}

	record := &Profile{
		ID:        userID,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Phone:     normalized,
	}

	updated, err := p.Repository.Update(ctx, record,
		repository.UpdateByID(userID.String()),
		repository.UpdateSkipZeroValues(),
	)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.Wrap(ErrProfileNotFound, goerrors.CategoryNotFound, "no profile for user").
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return nil, err
	}

	updated.EnsureRole()
	return updated, nil
}

func (p *profiles) SetRole(ctx context.Context, userID uuid.UUID, role Role) (*Profile, error) {
	if !IsValidRole(role) {
		return nil, goerrors.New("unknown role", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"role": role})
	}

	record := &Profile{
		ID:   userID,
		Role: role,
	}

	updated, err := p.Repository.Update(ctx, record,
		repository.UpdateByID(userID.String()),
		repository.UpdateSkipZeroValues(),
	)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.Wrap(ErrProfileNotFound, goerrors.CategoryNotFound, "no profile for user").
				WithMetadata(map[string]any{"user_id": userID.String()})
		}
		return nil, err
	}

	updated.EnsureRole()
	return updated, nil
}

// ListAll returns every matching profile without the paging the embedded
// repository's List carries.
func (p *profiles) ListAll(ctx context.Context, criteria ...repository.SelectCriteria) ([]*Profile, error) {
	var records []*Profile

	q := p.db.NewSelect().Model(&records)
	for _, c := range criteria {
		q.Apply(c)
	}

	if err := q.Order("prf.created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}

	for _, record := range records {
		record.EnsureRole()
	}

	return records, nil
}

// ProfilesByRole narrows a profile listing to a single role.
func ProfilesByRole(role Role) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.role = ?", role)
	}
}

func (p *profiles) normalizePhone(phone string) (string, error) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return "", nil
	}

	parsed, err := phonenumbers.Parse(trimmed, p.defaultRegion)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "invalid phone number").
			WithCode(goerrors.CodeBadRequest)
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", goerrors.New("invalid phone number", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}

// isDuplicateKey matches unique constraint failures across the drivers we
// support (sqlite and postgres) without importing either driver's error
// types.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if err == sql.ErrNoRows {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed")
}
