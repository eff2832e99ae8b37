package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func formRequest(t *testing.T, values url.Values) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transactions/x", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := parseForm(httptest.NewRecorder(), req); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	return req
}

func TestParseTransactionEdit(t *testing.T) {
	e := ParseTransactionEdit(formRequest(t, url.Values{"name": {"  Rent\x00 "}}))
	if e.Name == nil || *e.Name != "Rent" || e.Amount != nil {
		t.Fatalf("unexpected edit %+v", e)
	}

	e = ParseTransactionEdit(formRequest(t, url.Values{"amount": {""}}))
	if e.Amount == nil || *e.Amount != "" || e.Name != nil {
		t.Fatalf("present but empty amount should be kept: %+v", e)
	}
	if !ParseTransactionEdit(formRequest(t, url.Values{})).Empty() {
		t.Fatalf("empty form should be empty")
	}
}

func TestParseFormRejectsHugeBodies(t *testing.T) {
	big := url.Values{"name": {strings.Repeat("a", maxFormBytes+1)}}
	req := httptest.NewRequest(http.MethodPost, "/income", strings.NewReader(big.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := parseForm(httptest.NewRecorder(), req); err == nil {
		t.Fatalf("expected error for oversized form")
	}
}

func TestParseItemID(t *testing.T) {
	cases := map[string]bool{"1": true, "42": true, "0": false, "-3": false, "x": false}
	for raw, ok := range cases {
		req := httptest.NewRequest(http.MethodDelete, "/items/"+raw, nil)
		req.SetPathValue("id", raw)
		_, err := ParseItemID(req)
		if (err == nil) != ok {
			t.Errorf("ParseItemID(%q) err = %v", raw, err)
		}
	}
}

func TestRequestKinds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	if IsHTMX(req) || WantsJSON(req) {
		t.Fatalf("plain request misdetected")
	}
	req.Header.Set("HX-Request", "true")
	req.Header.Set("Accept", "application/json, text/plain")
	if !IsHTMX(req) || !WantsJSON(req) {
		t.Fatalf("headers not detected")
	}
}
