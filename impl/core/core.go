package core

import (
	"context"
	"errors"
	"fmt"
	"guestlist/entity"
	"guestlist/lib/clock"
	"guestlist/lib/logger"
	"guestlist/lib/sl"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Database is the guest store. GetGuest returns nil, nil for an unknown id.
// SetGuestStatus and MarkGuestUsed are conditional updates reporting whether a record changed.
type Database interface {
	CreateGuest(ctx context.Context, guest *entity.Guest) error
	ListGuests(ctx context.Context) ([]*entity.Guest, error)
	GetGuest(ctx context.Context, id string) (*entity.Guest, error)
	SetGuestStatus(ctx context.Context, id string, status entity.GuestStatus) (bool, error)
	MarkGuestUsed(ctx context.Context, id string, usedAt time.Time) (bool, error)
	DeleteAllGuests(ctx context.Context) (int64, error)
}

type Notifier interface {
	SendAdmission(ctx context.Context, guest *entity.Guest) error
}

type AuthService interface {
	Authenticate(secret string) error
}

type Metrics interface {
	Scan(reason string)
	Moderation(status string)
	Registration()
	Notification(ok bool)
}

// Announcer delivers short operator notices, e.g. to Telegram admins.
type Announcer interface {
	Announce(topic, msg string)
}

type Core struct {
	db       Database
	notifier Notifier
	auth     AuthService
	metrics  Metrics
	announce Announcer
	loc      *time.Location
	now      func() time.Time
	log      *slog.Logger
}

func New(db Database, log *slog.Logger) *Core {
	if db == nil {
		panic("guest store is nil")
	}
	return &Core{
		db:  db,
		loc: time.UTC,
		now: time.Now,
		log: log.With(sl.Module("core")),
	}
}

func (c *Core) SetNotifier(n Notifier) {
	c.notifier = n
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetMetrics(m Metrics) {
	c.metrics = m
}

func (c *Core) SetAnnouncer(a Announcer) {
	c.announce = a
}

// SetLocation sets the time zone used in human readable scan messages.
func (c *Core) SetLocation(loc *time.Location) {
	if loc != nil {
		c.loc = loc
	}
}

func (c *Core) AuthenticateBySecret(secret string) error {
	if c.auth == nil {
		return fmt.Errorf("auth service not connected: %w", entity.ErrUnauthorized)
	}
	return c.auth.Authenticate(secret)
}

// timestamp returns the current time at the precision the stores keep.
func (c *Core) timestamp() time.Time {
	return c.now().UTC().Truncate(time.Millisecond)
}

func (c *Core) RegisterGuest(ctx context.Context, reg *entity.Registration) (string, error) {
	guest := &entity.Guest{
		Id:        uuid.NewString(),
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Instagram: reg.Instagram,
		Status:    entity.StatusPending,
		IsUsed:    false,
		CreatedAt: c.timestamp(),
	}
	if err := c.db.CreateGuest(ctx, guest); err != nil {
		return "", fmt.Errorf("create guest: %w", err)
	}

	c.log.With(
		sl.Secret("guest_id", guest.Id),
		slog.String("name", guest.FullName()),
	).Info("guest registered")

	if c.metrics != nil {
		c.metrics.Registration()
	}
	if c.announce != nil {
		msg := fmt.Sprintf("New request: %s", guest.FullName())
		if guest.Instagram != "" {
			msg += fmt.Sprintf(" (%s)", guest.Instagram)
		}
		c.announce.Announce(entity.TopicRegistration, msg)
	}
	return guest.Id, nil
}

func (c *Core) ListGuests(ctx context.Context) ([]*entity.Guest, error) {
	guests, err := c.db.ListGuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	return guests, nil
}

func (c *Core) GuestStats(ctx context.Context) (entity.GuestStats, error) {
	guests, err := c.ListGuests(ctx)
	if err != nil {
		return entity.GuestStats{}, err
	}
	return entity.CountGuests(guests), nil
}

func (c *Core) findGuest(ctx context.Context, id string) (*entity.Guest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, entity.ErrNotFound
	}
	guest, err := c.db.GetGuest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get guest: %w", err)
	}
	if guest == nil {
		return nil, entity.ErrNotFound
	}
	return guest, nil
}

// moveFromPending applies a moderation decision. A lost race is resolved by
// re-reading the record: the same target status counts as done and is
// reported through raced.
func (c *Core) moveFromPending(ctx context.Context, guest *entity.Guest, status entity.GuestStatus) (*entity.Guest, bool, error) {
	switch guest.Status {
	case status:
		return guest, false, nil
	case entity.StatusPending:
	default:
		return nil, false, fmt.Errorf("%s guest cannot become %s: %w", guest.Status, status, entity.ErrInvalidTransition)
	}

	changed, err := c.db.SetGuestStatus(ctx, guest.Id, status)
	if err != nil {
		return nil, false, fmt.Errorf("update status: %w", err)
	}
	if changed {
		guest.Status = status
		if c.metrics != nil {
			c.metrics.Moderation(string(status))
		}
		return guest, false, nil
	}

	current, err := c.findGuest(ctx, guest.Id)
	if err != nil {
		return nil, false, err
	}
	if current.Status != status {
		return nil, false, fmt.Errorf("%s guest cannot become %s: %w", current.Status, status, entity.ErrInvalidTransition)
	}
	return current, true, nil
}

// ApproveGuest approves a pending guest and emails the admission code. An
// already approved guest gets the email again, except when the approval was
// made by a concurrent request, which sends its own email. A failed email
// does not undo the approval; it is logged and reported through the notified flag.
func (c *Core) ApproveGuest(ctx context.Context, id string) (*entity.Guest, bool, error) {
	guest, err := c.findGuest(ctx, id)
	if err != nil {
		return nil, false, err
	}
	log := c.log.With(sl.Secret("guest_id", guest.Id))

	guest, raced, err := c.moveFromPending(ctx, guest, entity.StatusApproved)
	if err != nil {
		return nil, false, err
	}
	if raced {
		log.Info("guest approved by a concurrent request, email not repeated")
		return guest, false, nil
	}
	log.With(slog.String("name", guest.FullName())).Info("guest approved")

	notified := false
	if c.notifier == nil {
		log.Error("admission email not sent: notifier not connected")
	} else if err = c.notifier.SendAdmission(ctx, guest); err != nil {
		log.With(
			slog.String("email", guest.Email),
			slog.String(logger.TopicKey, entity.TopicModeration),
		).Error("admission email failed", sl.Err(err))
	} else {
		notified = true
	}
	if c.metrics != nil {
		c.metrics.Notification(notified)
	}
	return guest, notified, nil
}

func (c *Core) RejectGuest(ctx context.Context, id string) error {
	guest, err := c.findGuest(ctx, id)
	if err != nil {
		return err
	}
	guest, _, err = c.moveFromPending(ctx, guest, entity.StatusRejected)
	if err != nil {
		return err
	}
	c.log.With(
		sl.Secret("guest_id", guest.Id),
		slog.String("name", guest.FullName()),
	).Info("guest rejected")
	return nil
}

func (c *Core) ResetGuests(ctx context.Context) (int64, error) {
	n, err := c.db.DeleteAllGuests(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete guests: %w", err)
	}
	c.log.With(
		slog.Int64("deleted", n),
		slog.String(logger.TopicKey, entity.TopicSystem),
	).Warn("guest list reset")
	return n, nil
}

// ValidateCode decides admission for a scanned code. The admitting write is a
// conditional update in the store, so concurrent scans of one code admit once.
func (c *Core) ValidateCode(ctx context.Context, code string) (*entity.ScanResult, error) {
	log := c.log.With(sl.Code(code))

	guest, err := c.findGuest(ctx, code)
	if errors.Is(err, entity.ErrNotFound) {
		return c.scanResult(log, c.notFound()), nil
	}
	if err != nil {
		return nil, err
	}

	if !guest.IsApproved() {
		return c.scanResult(log, c.notApproved()), nil
	}
	if guest.IsUsed {
		return c.scanResult(log, c.alreadyUsed(guest)), nil
	}

	usedAt := c.timestamp()
	ok, err := c.db.MarkGuestUsed(ctx, guest.Id, usedAt)
	if err != nil {
		return nil, fmt.Errorf("mark used: %w", err)
	}
	if ok {
		guest.IsUsed = true
		guest.UsedAt = &usedAt
		return c.scanResult(log, c.admitted(guest)), nil
	}

	// another scan won the race or the record changed since it was read
	current, err := c.findGuest(ctx, guest.Id)
	if errors.Is(err, entity.ErrNotFound) {
		return c.scanResult(log, c.notFound()), nil
	}
	if err != nil {
		return nil, err
	}
	if current.IsUsed {
		return c.scanResult(log, c.alreadyUsed(current)), nil
	}
	if !current.IsApproved() {
		return c.scanResult(log, c.notApproved()), nil
	}
	return nil, fmt.Errorf("guest %s is approved and unused but could not be marked used", guest.Id)
}

func (c *Core) scanResult(log *slog.Logger, res *entity.ScanResult) *entity.ScanResult {
	if res.Guest != nil {
		log = log.With(slog.String("name", res.Guest.FullName()))
	}
	log.With(slog.String("reason", string(res.Reason))).Info("code scanned")
	if c.metrics != nil {
		c.metrics.Scan(string(res.Reason))
	}
	return res
}

func (c *Core) notFound() *entity.ScanResult {
	return &entity.ScanResult{
		Admit:   false,
		Reason:  entity.ReasonNotFound,
		Message: "NOT FOUND",
		Type:    entity.ScanTypeError,
	}
}

func (c *Core) notApproved() *entity.ScanResult {
	return &entity.ScanResult{
		Admit:   false,
		Reason:  entity.ReasonNotApproved,
		Message: "NOT APPROVED",
		Type:    entity.ScanTypeError,
	}
}

func (c *Core) alreadyUsed(guest *entity.Guest) *entity.ScanResult {
	msg := "ALREADY ENTERED"
	if guest.UsedAt != nil {
		msg = fmt.Sprintf("ALREADY ENTERED AT %s", clock.TimeOfDay(*guest.UsedAt, c.loc))
	}
	return &entity.ScanResult{
		Admit:   false,
		Reason:  entity.ReasonAlreadyUsed,
		Message: msg,
		Type:    entity.ScanTypeWarning,
		Guest:   guest,
		UsedAt:  guest.UsedAt,
	}
}

func (c *Core) admitted(guest *entity.Guest) *entity.ScanResult {
	return &entity.ScanResult{
		Admit:   true,
		Reason:  entity.ReasonAdmitted,
		Message: "WELCOME",
		Type:    entity.ScanTypeSuccess,
		Guest:   guest,
		UsedAt:  guest.UsedAt,
	}
}
