package core

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Go Temelleri", "go-temelleri"},
		{"1 - Giris  (HD)", "1-giris-hd"},
		{"already-clean", "already-clean"},
		{"___", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTimestampMS(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "00:00"},
		{65000, "01:05"},
		{3599999, "59:59"},
	}
	for _, tt := range tests {
		if got := FormatTimestampMS(tt.ms); got != tt.want {
			t.Errorf("FormatTimestampMS(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 32 {
		t.Errorf("NewID length = %d, want 32 hex chars", len(a))
	}
	if a == b {
		t.Error("consecutive IDs should differ")
	}
}
