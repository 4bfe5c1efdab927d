package core

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

func NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "write json error: %v", err)
	}
}

// FormatTimestampMS renders a millisecond offset as mm:ss for prompts and
// source citations.
func FormatTimestampMS(ms int) string {
	if ms < 0 {
		ms = 0
	}
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

var slugScrub = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every non-alphanumeric run into a single
// hyphen, matching the identifiers the ingest side derives from file names.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugScrub.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
