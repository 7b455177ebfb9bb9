package response

import "guestlist/lib/clock"

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// Done is the payload of operations that have nothing to return.
type Done struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted,omitempty"`
}

func OkDone(deleted int64) Response {
	return Ok(Done{Success: true, Deleted: deleted})
}
