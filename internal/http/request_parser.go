package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"nickel/internal/core"
)

// maxFormBytes bounds form bodies; a row edit is a few dozen bytes.
const maxFormBytes = 16 << 10

var errMissingID = errors.New("missing id")

// TransactionEdit holds the optional fields of a row edit. A field absent
// from the form is nil and left untouched.
type TransactionEdit struct {
	Name   *string
	Amount *string
}

// Empty reports whether the form carried nothing to change.
func (e TransactionEdit) Empty() bool {
	return e.Name == nil && e.Amount == nil
}

// parseForm limits the body size and parses it.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// ParseNewTransaction reads the optional name and amount of an add request.
func ParseNewTransaction(r *http.Request) (name, amount string) {
	return sanitizeInput(r.PostForm.Get("name")), sanitizeInput(r.PostForm.Get("amount"))
}

// ParseTransactionEdit reads the fields present in the form.
func ParseTransactionEdit(r *http.Request) TransactionEdit {
	var e TransactionEdit
	if _, ok := r.PostForm["name"]; ok {
		v := sanitizeInput(r.PostForm.Get("name"))
		e.Name = &v
	}
	if _, ok := r.PostForm["amount"]; ok {
		v := sanitizeInput(r.PostForm.Get("amount"))
		e.Amount = &v
	}
	return e
}

// ParseTransactionID reads the {id} path segment.
func ParseTransactionID(r *http.Request) (core.TransactionID, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	if raw == "" {
		return "", errMissingID
	}
	return core.ParseTransactionID(raw)
}

// ParseItemID reads the {id} path segment as a positive integer.
func ParseItemID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	if raw == "" {
		return 0, errMissingID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return id, nil
}

// IsHTMX reports whether the request came from htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// WantsJSON reports whether the client asked for JSON.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// sanitizeInput drops control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s)
}
