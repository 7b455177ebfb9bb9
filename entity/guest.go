package entity

import (
	"guestlist/lib/validate"
	"net/http"
	"strings"
	"time"
)

// GuestStatus is the moderation state of a registration.
// Only PENDING -> APPROVED and PENDING -> REJECTED are allowed; both targets are terminal.
type GuestStatus string

const (
	StatusPending  GuestStatus = "PENDING"
	StatusApproved GuestStatus = "APPROVED"
	StatusRejected GuestStatus = "REJECTED"
)

// Guest is one attendee registration. Id doubles as the redemption code encoded in the QR.
type Guest struct {
	Id        string      `json:"id" bson:"id"`
	FirstName string      `json:"firstName" bson:"first_name"`
	LastName  string      `json:"lastName" bson:"last_name"`
	Email     string      `json:"email" bson:"email"`
	Instagram string      `json:"instagram" bson:"instagram"`
	Status    GuestStatus `json:"status" bson:"status"`
	IsUsed    bool        `json:"isUsed" bson:"is_used"`
	UsedAt    *time.Time  `json:"usedAt,omitempty" bson:"used_at,omitempty"`
	CreatedAt time.Time   `json:"createdAt" bson:"created_at"`
}

func (g *Guest) FullName() string {
	return strings.TrimSpace(g.FirstName + " " + g.LastName)
}

func (g *Guest) IsApproved() bool {
	return g.Status == StatusApproved
}

func (g *Guest) IsPending() bool {
	return g.Status == StatusPending
}

// Registration is the public form submitted by an attendee.
type Registration struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Instagram string `json:"instagram" validate:"omitempty,max=100"`
}

func (r *Registration) Bind(_ *http.Request) error {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Instagram = strings.TrimSpace(r.Instagram)
	return validate.Struct(r)
}

// GuestRef identifies a guest in moderation requests.
type GuestRef struct {
	Id string `json:"id" validate:"required"`
}

func (g *GuestRef) Bind(_ *http.Request) error {
	g.Id = strings.TrimSpace(g.Id)
	return validate.Struct(g)
}

// GuestStats is a snapshot of the guest list used by summaries.
type GuestStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Admitted int `json:"admitted"`
}

func CountGuests(guests []*Guest) GuestStats {
	stats := GuestStats{Total: len(guests)}
	for _, g := range guests {
		switch g.Status {
		case StatusPending:
			stats.Pending++
		case StatusApproved:
			stats.Approved++
		case StatusRejected:
			stats.Rejected++
		}
		if g.IsUsed {
			stats.Admitted++
		}
	}
	return stats
}
