package processors

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// SentenceSplitter breaks a transcript's full text into trimmed, non-empty
// sentences. The default implementation is a punctuation heuristic; it lives
// behind this interface so a real tokenizer can replace it without touching
// the alignment logic.
type SentenceSplitter interface {
	Split(text string) []string
}

// RegexSentenceSplitter splits on terminal punctuation (., ?, !) followed by
// whitespace. Known limitation: abbreviations and decimal points can cause
// over-splitting; transcripts rarely contain either, so this is accepted
// rather than special-cased.
type RegexSentenceSplitter struct{}

var sentenceBoundary = regexp.MustCompile(`[.?!]\s+`)

func (RegexSentenceSplitter) Split(text string) []string {
	var sentences []string
	prev := 0
	for _, m := range sentenceBoundary.FindAllStringIndex(text, -1) {
		// m[0] is the terminal punctuation character; keep it with the
		// sentence, drop the whitespace run.
		s := strings.TrimSpace(text[prev : m[0]+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		prev = m[1]
	}
	if s := strings.TrimSpace(text[prev:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// charTimeSpan maps a half-open byte range of the concatenated transcript
// text back to the time range of the segment that produced it. Spans are
// contiguous, non-overlapping, and cover the whole text in order.
type charTimeSpan struct {
	startChar int
	endChar   int
	startMS   int
	endMS     int
}

// Chunker groups transcript sentences into fixed-size chunks and recovers
// per-chunk timestamps by mapping character offsets back onto the source
// segments. A Chunker is stateless across calls and safe for concurrent use.
type Chunker struct {
	sentencesPerChunk int
	splitter          SentenceSplitter
}

func NewChunker(sentencesPerChunk int) (*Chunker, error) {
	return NewChunkerWithSplitter(sentencesPerChunk, RegexSentenceSplitter{})
}

func NewChunkerWithSplitter(sentencesPerChunk int, splitter SentenceSplitter) (*Chunker, error) {
	if sentencesPerChunk < 1 {
		return nil, fmt.Errorf("sentences_per_chunk must be a positive integer, got %d", sentencesPerChunk)
	}
	if splitter == nil {
		splitter = RegexSentenceSplitter{}
	}
	return &Chunker{sentencesPerChunk: sentencesPerChunk, splitter: splitter}, nil
}

// Chunk turns an ordered segment list into timestamp-addressable chunks.
// An empty segment list yields an empty chunk list; callers that need to
// distinguish "no transcript" from "short transcript" do so upstream, at the
// transcript source. Alignment anomalies are recovered locally and only
// logged, so every sentence group always produces a chunk.
func (c *Chunker) Chunk(segments []core.TranscriptSegment, videoID, videoTitle string) []core.Chunk {
	chunks := []core.Chunk{}
	if len(segments) == 0 {
		log.Printf("no transcript segments to chunk for %q", videoTitle)
		return chunks
	}

	// Concatenate segment texts with a single joining space and record, per
	// segment, which byte range of the full text it owns.
	var sb strings.Builder
	spans := make([]charTimeSpan, 0, len(segments))
	offset := 0
	for _, seg := range segments {
		sb.WriteString(seg.Text)
		sb.WriteString(" ")
		segLen := len(seg.Text) + 1
		spans = append(spans, charTimeSpan{
			startChar: offset,
			endChar:   offset + segLen,
			startMS:   seg.StartMS,
			endMS:     seg.EndMS,
		})
		offset += segLen
	}
	fullText := sb.String()

	sentences := c.splitter.Split(fullText)

	// The relocation cursor is local to this call and only moves forward, so
	// repeated text can never alias a chunk to an earlier position.
	searchFrom := 0
	for i := 0; i < len(sentences); i += c.sentencesPerChunk {
		group := sentences[i:core.Min(i+c.sentencesPerChunk, len(sentences))]
		chunkText := strings.Join(group, " ")

		chunkStartChar := searchFrom
		if idx := strings.Index(fullText[searchFrom:], chunkText); idx >= 0 {
			chunkStartChar = searchFrom + idx
		} else {
			log.Printf("chunk text not found verbatim, using cursor position %d: %.50s...", searchFrom, chunkText)
		}
		chunkEndChar := chunkStartChar + len(chunkText)
		searchFrom = chunkEndChar

		// Earliest span touching the chunk's start, latest span touching its
		// end. The opposed scan directions guarantee the chunk's time range
		// covers every segment it was built from.
		startMS, endMS := -1, -1
		for _, sp := range spans {
			if chunkStartChar >= sp.startChar && chunkStartChar < sp.endChar {
				startMS = sp.startMS
				break
			}
		}
		for j := len(spans) - 1; j >= 0; j-- {
			if spans[j].startChar < chunkEndChar {
				endMS = spans[j].endMS
				break
			}
		}
		if startMS < 0 {
			startMS = segments[0].StartMS
		}
		if endMS < 0 {
			endMS = segments[len(segments)-1].EndMS
		}

		chunks = append(chunks, core.Chunk{
			ChunkIndex: len(chunks),
			Text:       chunkText,
			StartMS:    startMS,
			EndMS:      endMS,
			Metadata: core.ChunkMetadata{
				VideoID:       videoID,
				VideoTitle:    videoTitle,
				TimestampLink: timestampLink(videoID, startMS),
			},
		})
	}

	log.Printf("chunked %q: %d segments, %d sentences -> %d chunks",
		videoTitle, len(segments), len(sentences), len(chunks))
	return chunks
}

// timestampLink builds a watch URL for videos whose ID matches YouTube's
// 11-character convention; local videos get no link.
func timestampLink(videoID string, startMS int) *string {
	if utf8.RuneCountInString(videoID) != 11 {
		return nil
	}
	link := fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", videoID, startMS/1000)
	return &link
}
