package hostel

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile extends the identity provider's user record with role and contact
// fields. Its primary key is the provider-assigned user id, so at most one
// profile exists per user; concurrent first logins racing to insert are
// resolved by the database, not by this layer.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	FirstName     string     `bun:"first_name" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name" json:"last_name,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Role          Role       `bun:"role,notnull" json:"role,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureRole defaults an absent role to guest.
func (p *Profile) EnsureRole() {
	if p != nil {
		p.Role = NormalizeRole(p.Role)
	}
}

// FullName joins first and last name for display.
func (p *Profile) FullName() string {
	if p == nil {
		return ""
	}
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}

// IsAdmin reports whether the profile carries the admin role. Safe on nil.
func (p *Profile) IsAdmin() bool {
	return p != nil && NormalizeRole(p.Role) == RoleAdmin
}

// ProfileSeed holds the fields used to create a profile the first time a
// session for its user id is observed.
type ProfileSeed struct {
	Email     string
	FirstName string
	LastName  string
}

// RoomStatus is the housekeeping state of a room.
type RoomStatus = string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomCleaning    RoomStatus = "cleaning"
	RoomMaintenance RoomStatus = "maintenance"
)

// Room is a bookable unit of inventory.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:rm"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Number        string     `bun:"number,notnull,unique" json:"number,omitempty"`
	Type          string     `bun:"room_type,notnull" json:"room_type,omitempty"`
	Capacity      int        `bun:"capacity,notnull" json:"capacity,omitempty"`
	NightlyRate   float64    `bun:"nightly_rate" json:"nightly_rate,omitempty"`
	Status        RoomStatus `bun:"status,notnull" json:"status,omitempty"`
	Notes         string     `bun:"notes" json:"notes,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus defaults an empty status to available.
func (r *Room) EnsureStatus() {
	if r != nil && r.Status == "" {
		r.Status = RoomAvailable
	}
}

// Stay records a guest occupying a room between check-in and check-out.
// An open stay has a nil CheckedOutAt.
type Stay struct {
	bun.BaseModel    `bun:"table:stays,alias:sty"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	RoomID           uuid.UUID  `bun:"room_id,notnull,type:uuid" json:"room_id,omitempty"`
	Room             *Room      `bun:"rel:has-one,join:room_id=id" json:"room,omitempty"`
	Reference        string     `bun:"reference,notnull,unique" json:"reference,omitempty"`
	GuestName        string     `bun:"guest_name,notnull" json:"guest_name,omitempty"`
	GuestEmail       string     `bun:"guest_email" json:"guest_email,omitempty"`
	GuestPhone       string     `bun:"guest_phone" json:"guest_phone,omitempty"`
	GuestDocument    string     `bun:"guest_document" json:"guest_document,omitempty"`
	CheckedInAt      *time.Time `bun:"checked_in_at,nullzero" json:"checked_in_at,omitempty"`
	ExpectedCheckout *time.Time `bun:"expected_checkout,nullzero" json:"expected_checkout,omitempty"`
	CheckedOutAt     *time.Time `bun:"checked_out_at,nullzero" json:"checked_out_at,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsActive reports whether the guest is still checked in.
func (s *Stay) IsActive() bool {
	return s != nil && s.CheckedOutAt == nil
}
