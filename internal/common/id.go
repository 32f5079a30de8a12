package common

import (
	"github.com/google/uuid"
)

// NewReportID generates a unique report ID with the "rpt_" prefix
func NewReportID() string {
	return "rpt_" + uuid.New().String()
}

// NewRequestID generates a correlation ID for an HTTP request
func NewRequestID() string {
	return uuid.New().String()[:8]
}
