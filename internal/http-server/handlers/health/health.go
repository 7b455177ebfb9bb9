package health

import (
	"guestlist/lib/api/response"
	"net/http"

	"github.com/go-chi/render"
)

type Status struct {
	Status string `json:"status"`
}

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.Ok(Status{Status: "ok"}))
	}
}
