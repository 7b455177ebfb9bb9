package moderation

import (
	"context"
	"fmt"
	"guestlist/entity"
	"guestlist/lib/api/response"
	"guestlist/lib/sl"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ApproveGuest(ctx context.Context, id string) (*entity.Guest, bool, error)
	RejectGuest(ctx context.Context, id string) error
	ResetGuests(ctx context.Context) (int64, error)
}

type Approved struct {
	Guest    *entity.Guest `json:"guest"`
	Notified bool          `json:"notified"`
}

func logger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module("http.handlers.moderation"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func unavailable(log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	log.Error("moderation service not available")
	render.Status(r, http.StatusServiceUnavailable)
	render.JSON(w, r, response.Error("Moderation not available"))
}

func bindRef(log *slog.Logger, w http.ResponseWriter, r *http.Request) (*entity.GuestRef, bool) {
	var ref entity.GuestRef
	if err := render.Bind(r, &ref); err != nil {
		log.Warn("invalid request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
		return nil, false
	}
	return &ref, true
}

func failed(log *slog.Logger, w http.ResponseWriter, r *http.Request, action string, err error) {
	status := response.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Error(action, sl.Err(err))
	} else {
		log.Warn(action, sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
}

func Approve(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r)
		if handler == nil {
			unavailable(log, w, r)
			return
		}
		ref, ok := bindRef(log, w, r)
		if !ok {
			return
		}

		guest, notified, err := handler.ApproveGuest(r.Context(), ref.Id)
		if err != nil {
			failed(log, w, r, "approve guest", err)
			return
		}

		render.JSON(w, r, response.Ok(Approved{Guest: guest, Notified: notified}))
	}
}

func Reject(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r)
		if handler == nil {
			unavailable(log, w, r)
			return
		}
		ref, ok := bindRef(log, w, r)
		if !ok {
			return
		}

		if err := handler.RejectGuest(r.Context(), ref.Id); err != nil {
			failed(log, w, r, "reject guest", err)
			return
		}

		render.JSON(w, r, response.OkDone(0))
	}
}

// Reset deletes every guest. The caller is expected to have confirmed it.
func Reset(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger(log, r)
		if handler == nil {
			unavailable(log, w, r)
			return
		}

		n, err := handler.ResetGuests(r.Context())
		if err != nil {
			failed(log, w, r, "reset guests", err)
			return
		}

		render.JSON(w, r, response.OkDone(n))
	}
}
