package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/seismic-data-api/internal/adapter/usgs"
	"github.com/couchcryptid/seismic-data-api/internal/domain"
)

// Pagination describes the page returned in a listing envelope.
type Pagination struct {
	Page       int  `json:"page"`
	TotalPages *int `json:"totalPages,omitempty"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"hasMore"`
}

// Envelope is the response body for non-listing routes and all errors.
type Envelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Listing is the envelope for earthquake listings. Data is always an array,
// even for an empty page.
type Listing struct {
	Success    bool       `json:"success"`
	Code       int        `json:"code"`
	Status     string     `json:"status"`
	Message    string     `json:"message"`
	Total      int        `json:"total"`
	Data       []any      `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// listingEnvelope wraps a processing result. totalPages is ceil(total/limit).
func listingEnvelope(message string, res domain.Result) Listing {
	items := res.Items
	if items == nil {
		items = []any{}
	}
	total := res.TotalFetched
	totalPages := (total + res.Limit - 1) / res.Limit
	return Listing{
		Success: true,
		Code:    http.StatusOK,
		Status:  "success",
		Message: message,
		Total:   total,
		Data:    items,
		Pagination: Pagination{
			Page:       res.Page,
			TotalPages: &totalPages,
			Limit:      res.Limit,
			HasMore:    res.HasMore,
		},
	}
}

func writeData(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{
		Success: true,
		Code:    status,
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{
		Success: false,
		Code:    status,
		Status:  "error",
		Message: message,
	})
}

// writeError maps err onto a status code. Unclassified errors are logged and
// reported generically.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var upErr *usgs.UpstreamError
	switch {
	case errors.As(err, &upErr):
		writeFailure(w, http.StatusBadGateway, upErr.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, domain.ErrUserExists):
		writeFailure(w, http.StatusConflict, "an account with this email already exists")
	case errors.Is(err, domain.ErrUserNotFound):
		writeFailure(w, http.StatusNotFound, "user not found")
	default:
		logger.Error("request failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	writeFailure(w, http.StatusUnauthorized, "missing or invalid bearer token")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
