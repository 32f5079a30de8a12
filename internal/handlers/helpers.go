package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/finsaathi/internal/common"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WritePDF sends a PDF as a download
func WritePDF(w http.ResponseWriter, filename string, content []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	w.Write(content)
}

// symbolRequest is the body of POST endpoints taking a symbol
type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// DecodeSymbol reads {"symbol": "..."} from the body and upper-cases it.
// An empty body yields ""; a value outside the ticker alphabet is an error.
func DecodeSymbol(r *http.Request) (string, error) {
	var req symbolRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil && err != io.EOF {
		return "", fmt.Errorf("invalid request body: %w", err)
	}
	return common.ParseSymbol(req.Symbol)
}

// GetLimit reads the limit query parameter, clamped to [1, max]
func GetLimit(r *http.Request, def, max int) int {
	limit := def
	if s := r.URL.Query().Get("limit"); s != "" {
		if l, err := strconv.Atoi(s); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

// PathID returns the path segment following prefix, or "" when there is none
// or it contains further segments.
func PathID(r *http.Request, prefix string) string {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == r.URL.Path || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
