package processors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// ErrEmptyTranscript signals that a transcript source produced no usable
// segments. Callers treat the video as unprocessable instead of chunking an
// empty transcript.
var ErrEmptyTranscript = errors.New("no timestamped segments could be extracted from transcript")

// ParseSubtitles parses WebVTT or SRT content into ordered transcript
// segments. Both formats share the cue shape this cares about: a timestamp
// line "start --> end" followed by one or more text lines, cues separated by
// blank lines. Multi-line cue text is collapsed to a single line.
func ParseSubtitles(content string) ([]core.TranscriptSegment, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var segments []core.TranscriptSegment
	var textLines []string
	startMS, endMS := -1, -1

	flush := func() {
		if startMS >= 0 && len(textLines) > 0 {
			text := strings.TrimSpace(strings.Join(textLines, " "))
			if text != "" {
				segments = append(segments, core.TranscriptSegment{
					Text:    text,
					StartMS: startMS,
					EndMS:   endMS,
				})
			}
		}
		textLines = nil
		startMS, endMS = -1, -1
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}
		if line == "WEBVTT" || strings.HasPrefix(line, "NOTE") || strings.HasPrefix(line, "STYLE") {
			continue
		}
		// SRT cue sequence numbers.
		if isDigitOnly(line) && startMS < 0 {
			continue
		}
		if strings.Contains(line, "-->") {
			flush()
			parts := strings.SplitN(line, "-->", 2)
			s, errS := parseCueTime(strings.TrimSpace(parts[0]))
			// VTT cue settings may trail the end timestamp.
			endField := strings.Fields(strings.TrimSpace(parts[1]))
			if len(endField) == 0 {
				continue
			}
			e, errE := parseCueTime(endField[0])
			if errS != nil || errE != nil {
				continue
			}
			startMS, endMS = s, e
			continue
		}
		if startMS >= 0 {
			textLines = append(textLines, line)
		}
	}
	flush()

	if len(segments) == 0 {
		return nil, ErrEmptyTranscript
	}
	return segments, nil
}

// parseCueTime converts "HH:MM:SS.mmm" (or the comma-decimal SRT variant,
// optionally without the hour field) to milliseconds.
func parseCueTime(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed cue timestamp %q", s)
	}
	var h int
	if len(parts) == 3 {
		v, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("malformed cue timestamp %q: %v", s, err)
		}
		h = v
		parts = parts[1:]
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed cue timestamp %q: %v", s, err)
	}
	sec, err := strconv.ParseFloat(strings.ReplaceAll(parts[1], ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed cue timestamp %q: %v", s, err)
	}
	return int((float64(h*3600+m*60) + sec) * 1000), nil
}

func isDigitOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
