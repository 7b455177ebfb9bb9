package scan

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
	ValidateCode(ctx context.Context, code string) (*entity.ScanResult, error)
}

// Validate answers every scan outcome with 200; only bad input and failures use error codes.
func Validate(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.With(
			sl.Module("http.handlers.scan"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("scan service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Scanner not available"))
			return
		}

		var req entity.ScanRequest
		if err := render.Bind(r, &req); err != nil {
			log.Warn("invalid request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		result, err := handler.ValidateCode(r.Context(), req.Code)
		if err != nil {
			log.With(sl.Code(req.Code)).Error("validate code", sl.Err(err))
			render.Status(r, response.StatusCode(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}

		render.JSON(w, r, response.Ok(result))
	}
}
