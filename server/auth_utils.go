package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-tenant-guard/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	maxBodyBytes = 1 << 20

	codeRateLimited apperrors.Code = "RateLimited"
)

var statusByCode = map[apperrors.Code]int{
	apperrors.CodeInvalidCredentials: http.StatusUnauthorized,
	apperrors.CodeTokenInvalid:       http.StatusUnauthorized,
	apperrors.CodeTokenExpired:       http.StatusUnauthorized,
	apperrors.CodeRefreshInvalid:     http.StatusUnauthorized,
	apperrors.CodeAccountDisabled:    http.StatusForbidden,
	apperrors.CodeNoTenant:           http.StatusForbidden,
	apperrors.CodeForbidden:          http.StatusForbidden,
	apperrors.CodeNotFound:           http.StatusNotFound,
	apperrors.CodeConflict:           http.StatusConflict,
	apperrors.CodeSeatLimitReached:   http.StatusConflict,
	apperrors.CodeInvalidRequest:     http.StatusBadRequest,
	apperrors.CodeInternal:           http.StatusInternalServerError,
}

// StatusOf returns the HTTP status a taxonomy error is reported with.
func StatusOf(err error) int {
	if status, ok := statusByCode[apperrors.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorResponse struct {
	Error apperrors.Code `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("encoding response")
	}
}

func writeCode(w http.ResponseWriter, status int, code apperrors.Code) {
	writeJSON(w, status, errorResponse{Error: code})
}

// writeError reports err as its stable code only. Infrastructure failures are logged
// here and never described to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeInternal {
		log.Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeCode(w, StatusOf(err), code)
}

// decodeJSON reads a single JSON object into dst. Malformed or oversized bodies are
// ErrInvalidRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(apperrors.ErrInvalidRequest, err.Error())
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.Wrap(apperrors.ErrInvalidRequest, "body must contain a single JSON object")
	}
	return nil
}

// bearerToken extracts the credential from the Authorization header. A missing or
// malformed header is ErrTokenInvalid.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", apperrors.ErrTokenInvalid
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", apperrors.ErrTokenInvalid
	}
	return token, nil
}
