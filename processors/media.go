package processors

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

func runFFmpeg(args []string) error {
	cmd := exec.Command("ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ExtractAudio strips the audio track of a video into a mono 16 kHz WAV,
// the input format Whisper expects.
func ExtractAudio(videoPath, audioOut string) error {
	args := []string{"-y", "-i", videoPath, "-vn", "-ac", "1", "-ar", "16000", "-f", "wav", audioOut}
	if err := runFFmpeg(args); err != nil {
		return fmt.Errorf("extract audio from %s: %v", videoPath, err)
	}
	return nil
}

// ExtractFrameAt grabs a single JPEG frame at the given millisecond offset.
func ExtractFrameAt(videoPath string, timestampMS int, frameOut string) error {
	ts := fmt.Sprintf("%d.%03d", timestampMS/1000, timestampMS%1000)
	args := []string{"-y", "-ss", ts, "-i", videoPath, "-frames:v", "1", "-q:v", "2", frameOut}
	if err := runFFmpeg(args); err != nil {
		return fmt.Errorf("extract frame at %dms from %s: %v", timestampMS, videoPath, err)
	}
	return nil
}

// ProbeDuration returns a video's duration in seconds via ffprobe.
func ProbeDuration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return 0, err
	}
	s := strings.TrimSpace(out.String())
	return strconv.ParseFloat(s, 64)
}
