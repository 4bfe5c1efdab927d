package server

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
	"github.com/AbdulbariSoylemez/SterkAgents/processors"
)

// Library is the course/video catalog scanned once at startup. It doubles as
// the collection resolver: an explicit mapping from collection name back to
// the course directory holding the source videos, injected into whatever
// needs it instead of living in package-level lookup state.
type Library struct {
	Courses []core.Course

	dirByCollection map[string]string
}

var leadingNumber = regexp.MustCompile(`^\s*(\d+)`)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".webm": true,
}

// ScanLibrary walks the videos root (one course per subdirectory) and builds
// the catalog plus the collection-to-directory mapping.
func ScanLibrary(videosRoot string) (*Library, error) {
	lib := &Library{dirByCollection: map[string]string{}}

	entries, err := os.ReadDir(videosRoot)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("videos root %q not found, library is empty", videosRoot)
			return lib, nil
		}
		return nil, fmt.Errorf("read videos root %s: %w", videosRoot, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		courseName := entry.Name()
		courseDir := filepath.Join(videosRoot, courseName)
		collectionName := strings.ToLower(strings.ReplaceAll(courseName, " ", "_"))

		videoFiles := findVideos(courseDir)
		if len(videoFiles) == 0 {
			continue
		}
		sort.SliceStable(videoFiles, func(i, j int) bool {
			return sortKey(filepath.Base(videoFiles[i])) < sortKey(filepath.Base(videoFiles[j]))
		})

		course := core.Course{
			ID:             "course_" + core.Slugify(courseName),
			Title:          strings.ReplaceAll(courseName, "_", " "),
			Description:    "Egitim: " + strings.ReplaceAll(courseName, "_", " "),
			IsSeries:       len(videoFiles) > 1,
			CollectionName: collectionName,
			OriginalDir:    courseName,
			VideoURL:       "/" + filepath.ToSlash(filepath.Join(videosRoot, courseName, filepath.Base(videoFiles[0]))),
			VideoCount:     len(videoFiles),
		}
		if thumb := findThumbnail(courseDir); thumb != "" {
			course.Thumbnail = "/" + filepath.ToSlash(filepath.Join(videosRoot, courseName, filepath.Base(thumb)))
		}

		totalSeconds := 0
		for idx, videoFile := range videoFiles {
			durationSeconds, duration := videoDuration(videoFile)
			totalSeconds += durationSeconds
			course.Videos = append(course.Videos, core.VideoEntry{
				Title:           strings.TrimSuffix(filepath.Base(videoFile), filepath.Ext(videoFile)),
				VideoPath:       "/" + filepath.ToSlash(filepath.Join(videosRoot, courseName, filepath.Base(videoFile))),
				CollectionName:  collectionName,
				OriginalDirName: courseName,
				Index:           idx,
				Duration:        duration,
				DurationSeconds: durationSeconds,
			})
		}
		course.TotalDuration = formatDuration(totalSeconds)

		lib.Courses = append(lib.Courses, course)
		lib.dirByCollection[collectionName] = courseDir
		log.Printf("added course %q with %d videos", courseName, len(videoFiles))
	}

	sort.Slice(lib.Courses, func(i, j int) bool { return lib.Courses[i].Title < lib.Courses[j].Title })
	return lib, nil
}

// Resolve maps a collection name to its course directory.
func (l *Library) Resolve(collection string) (string, bool) {
	dir, ok := l.dirByCollection[collection]
	return dir, ok
}

func findVideos(dir string) []string {
	var videos []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if videoExtensions[strings.ToLower(filepath.Ext(path))] {
			videos = append(videos, path)
		}
		return nil
	})
	return videos
}

func findThumbnail(dir string) string {
	var thumb string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".jpg" || ext == ".png" {
			thumb = path
			return filepath.SkipAll
		}
		return nil
	})
	return thumb
}

// sortKey orders lecture files by their leading number; files without one
// sort after all numbered ones.
func sortKey(filename string) int {
	if m := leadingNumber.FindStringSubmatch(filename); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return int(^uint(0) >> 1)
}

func videoDuration(path string) (int, string) {
	seconds, err := processors.ProbeDuration(path)
	if err != nil {
		log.Printf("error probing duration of %s: %v", path, err)
		return 0, "N/A"
	}
	return int(seconds), formatDuration(int(seconds))
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%dd %dsn", seconds/60, seconds%60)
}
