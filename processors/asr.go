package processors

import (
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// ASRProvider produces timestamped transcript segments for an audio file.
type ASRProvider interface {
	Transcribe(audioPath string) ([]core.TranscriptSegment, error)
}

// SecondsSegment is the raw shape speech-to-text engines emit: times in
// floating-point seconds from audio start.
type SecondsSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// NormalizeSeconds converts engine segments to the uniform millisecond
// representation, trimming text and dropping segments that carry none.
// Returns ErrEmptyTranscript when nothing usable remains.
func NormalizeSeconds(raw []SecondsSegment) ([]core.TranscriptSegment, error) {
	segments := make([]core.TranscriptSegment, 0, len(raw))
	for _, seg := range raw {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, core.TranscriptSegment{
			Text:    text,
			StartMS: int(seg.Start * 1000),
			EndMS:   int(seg.End * 1000),
		})
	}
	if len(segments) == 0 {
		return nil, ErrEmptyTranscript
	}
	return segments, nil
}

// LocalWhisperASR shells out to the Whisper transcription script in scripts/.
type LocalWhisperASR struct {
	ModelSize string
}

func (l LocalWhisperASR) Transcribe(audioPath string) ([]core.TranscriptSegment, error) {
	scriptPath := filepath.Join("scripts", "whisper_transcribe.py")
	modelSize := l.ModelSize
	if modelSize == "" {
		modelSize = "medium"
	}

	start := time.Now()
	cmd := exec.Command("python", scriptPath, audioPath, "--model", modelSize)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("local Whisper transcription failed: %v", err)
	}
	log.Printf("whisper transcription of %s finished in %v", filepath.Base(audioPath), time.Since(start))

	var raw []SecondsSegment
	if err := json.Unmarshal(output, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %v", err)
	}
	return NormalizeSeconds(raw)
}
