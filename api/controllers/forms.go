package controllers

import (
	"mime"
	"net/http"
	"strings"

	pkgerrors "github.com/zachbush96/treelead-backend/pkg/errors"
)

const maxFormBytes = 1 << 20

// isJSONRequest reports whether the submission arrived as JSON rather than
// the legacy form encoding.
func isJSONRequest(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json"
}

// parseForm bounds and parses a legacy form body.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed form body")
	}
	return nil
}

// formFlag interprets the legacy checkbox convention: the field is present
// with value "yes" (or "on"/"1"/"true") when checked, absent otherwise.
func formFlag(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.PostFormValue(key))) {
	case "yes", "on", "1", "true":
		return true
	default:
		return false
	}
}

// splitCommaList splits a comma separated form field, dropping empties.
func splitCommaList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
