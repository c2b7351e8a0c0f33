package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/tradedesk/internal/common"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code,omitempty"`
	Fields []common.FieldError `json:"fields,omitempty"`
}

// DataResponse is the standard success envelope.
type DataResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteData writes data inside the {"status":"ok","data":...} envelope.
func WriteData(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, DataResponse{Status: "ok", Data: data})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// errorStatus maps a service error onto an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, common.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient_funds"
	case errors.Is(err, common.ErrInsufficientShares):
		return http.StatusBadRequest, "insufficient_shares"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrAlreadyExists):
		return http.StatusConflict, "already_exists"
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, common.ErrUnavailable):
		return http.StatusBadGateway, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeServiceError writes err with its mapped status. Internal errors are
// logged with the correlation ID and reported with a generic message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("correlation_id", common.CorrelationIDFromContext(r.Context())).
			Msg("Request failed")
		WriteErrorWithCode(w, status, "Internal server error", code)
		return
	}

	resp := ErrorResponse{Error: err.Error(), Code: code}
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	WriteJSON(w, status, resp)
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		WriteErrorWithCode(w, http.StatusBadRequest, "Request body is required", "validation_error")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteErrorWithCode(w, http.StatusRequestEntityTooLarge, "Request body too large", "validation_error")
			return false
		}
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), "validation_error")
		return false
	}
	return true
}

// decodeAndValidate decodes the body into v and runs struct validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if !DecodeJSON(w, r, v) {
		return false
	}
	if err := validateStruct(v); err != nil {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  err.Error(),
			Code:   "validation_error",
			Fields: err.Fields,
		})
		return false
	}
	return true
}

// queryInt parses an integer query parameter, returning def when it is absent
// and an error message when it is malformed.
func queryInt(r *http.Request, name string, def int) (int, string) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, ""
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, name + " must be an integer"
	}
	return v, ""
}

// PathParam extracts a path parameter from the URL path.
// For /api/portfolio/alerts/{id}/read, PathParam(r, "/api/portfolio/alerts/", "/read")
// returns {id}.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix: return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
