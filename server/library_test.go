package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSortKey(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"1 - Intro.mp4", "2 - Setup.mp4"},
		{"2 - Setup.mp4", "10 - Advanced.mp4"},
		{"10 - Advanced.mp4", "Bonus.mp4"}, // unnumbered files sort last
	}
	for _, tt := range tests {
		if sortKey(tt.a) >= sortKey(tt.b) {
			t.Errorf("sortKey(%q)=%d should be less than sortKey(%q)=%d",
				tt.a, sortKey(tt.a), tt.b, sortKey(tt.b))
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0d 0sn"},
		{59, "0d 59sn"},
		{60, "1d 0sn"},
		{3725, "62d 5sn"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestScanLibrary(t *testing.T) {
	root := t.TempDir()
	courseDir := filepath.Join(root, "Go Temelleri")
	if err := os.MkdirAll(courseDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"2 - Degiskenler.mp4", "1 - Giris.mp4", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(courseDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// empty course dirs are skipped
	if err := os.MkdirAll(filepath.Join(root, "Bos Kurs"), 0o755); err != nil {
		t.Fatal(err)
	}

	lib, err := ScanLibrary(root)
	if err != nil {
		t.Fatalf("ScanLibrary failed: %v", err)
	}
	if len(lib.Courses) != 1 {
		t.Fatalf("expected 1 course, got %d", len(lib.Courses))
	}

	course := lib.Courses[0]
	if course.CollectionName != "go_temelleri" {
		t.Errorf("collection name = %q, want %q", course.CollectionName, "go_temelleri")
	}
	if course.VideoCount != 2 {
		t.Errorf("video count = %d, want 2 (non-video files must be excluded)", course.VideoCount)
	}
	if !course.IsSeries {
		t.Error("course with 2 videos should be a series")
	}
	if course.Videos[0].Title != "1 - Giris" || course.Videos[1].Title != "2 - Degiskenler" {
		t.Errorf("videos not sorted by leading number: %q, %q",
			course.Videos[0].Title, course.Videos[1].Title)
	}

	dir, ok := lib.Resolve("go_temelleri")
	if !ok || dir != courseDir {
		t.Errorf("Resolve(go_temelleri) = %q, %v; want %q, true", dir, ok, courseDir)
	}
	if _, ok := lib.Resolve("missing"); ok {
		t.Error("Resolve of unknown collection should report a miss")
	}
}

func TestScanLibraryMissingRoot(t *testing.T) {
	lib, err := ScanLibrary(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("missing root should not be an error, got %v", err)
	}
	if len(lib.Courses) != 0 {
		t.Errorf("expected empty catalog, got %d courses", len(lib.Courses))
	}
}
