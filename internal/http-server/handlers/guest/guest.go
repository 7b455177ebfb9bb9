package guest

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
	RegisterGuest(ctx context.Context, reg *entity.Registration) (string, error)
	ListGuests(ctx context.Context) ([]*entity.Guest, error)
}

type Registered struct {
	Id string `json:"id"`
}

func Register(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.guest"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("guest service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Registration not available"))
			return
		}

		var reg entity.Registration
		if err := render.Bind(r, &reg); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		id, err := handler.RegisterGuest(r.Context(), &reg)
		if err != nil {
			log.Error("register guest", sl.Err(err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error("Registration failed, please retry"))
			return
		}

		render.JSON(w, r, response.Ok(Registered{Id: id}))
	}
}

func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.guest"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("guest service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Guest list not available"))
			return
		}

		guests, err := handler.ListGuests(r.Context())
		if err != nil {
			log.Error("list guests", sl.Err(err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		log.With(slog.Int("count", len(guests))).Debug("guests listed")

		render.JSON(w, r, response.Ok(guests))
	}
}
