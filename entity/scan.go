package entity

import (
	"guestlist/lib/validate"
	"net/http"
	"strings"
	"time"
)

// ScanReason is the outcome of validating a scanned code.
type ScanReason string

const (
	ReasonAdmitted    ScanReason = "ADMITTED"
	ReasonNotFound    ScanReason = "NOT_FOUND"
	ReasonNotApproved ScanReason = "NOT_APPROVED"
	ReasonAlreadyUsed ScanReason = "ALREADY_USED"
)

// Message types understood by the door scanner UI.
const (
	ScanTypeSuccess = "success"
	ScanTypeWarning = "warning"
	ScanTypeError   = "error"
)

// ScanRequest carries the QR payload; qrContent is accepted for older clients.
type ScanRequest struct {
	Code      string `json:"code" validate:"required"`
	QrContent string `json:"qrContent,omitempty"`
}

func (s *ScanRequest) Bind(_ *http.Request) error {
	s.Code = strings.TrimSpace(s.Code)
	if s.Code == "" {
		s.Code = strings.TrimSpace(s.QrContent)
	}
	return validate.Struct(s)
}

type ScanResult struct {
	Admit   bool       `json:"admit"`
	Reason  ScanReason `json:"reason"`
	Message string     `json:"message"`
	Type    string     `json:"type"`
	Guest   *Guest     `json:"guest,omitempty"`
	UsedAt  *time.Time `json:"usedAt,omitempty"`
}
