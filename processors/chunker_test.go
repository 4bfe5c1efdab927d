package processors

import (
	"reflect"
	"strings"
	"testing"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

func mustChunker(t *testing.T, sentencesPerChunk int) *Chunker {
	t.Helper()
	c, err := NewChunker(sentencesPerChunk)
	if err != nil {
		t.Fatalf("NewChunker(%d) failed: %v", sentencesPerChunk, err)
	}
	return c
}

func TestChunkOneSentencePerChunk(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: "Hello world.", StartMS: 0, EndMS: 1000},
		{Text: "This is a test.", StartMS: 1000, EndMS: 2500},
	}
	chunks := mustChunker(t, 1).Chunk(segments, "myvideo", "My Video")

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello world." {
		t.Errorf("chunk 0 text = %q", chunks[0].Text)
	}
	if chunks[0].StartMS != 0 || chunks[0].EndMS != 1000 {
		t.Errorf("chunk 0 time = [%d, %d], want [0, 1000]", chunks[0].StartMS, chunks[0].EndMS)
	}
	if chunks[1].Text != "This is a test." {
		t.Errorf("chunk 1 text = %q", chunks[1].Text)
	}
	if chunks[1].StartMS != 1000 || chunks[1].EndMS != 2500 {
		t.Errorf("chunk 1 time = [%d, %d], want [1000, 2500]", chunks[1].StartMS, chunks[1].EndMS)
	}
}

func TestChunkGroupsSentences(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: "Hello world.", StartMS: 0, EndMS: 1000},
		{Text: "This is a test.", StartMS: 1000, EndMS: 2500},
	}
	chunks := mustChunker(t, 2).Chunk(segments, "myvideo", "My Video")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "Hello world. This is a test." {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
	if chunks[0].StartMS != 0 || chunks[0].EndMS != 2500 {
		t.Errorf("chunk time = [%d, %d], want [0, 2500]", chunks[0].StartMS, chunks[0].EndMS)
	}
}

func TestChunkEmptySegments(t *testing.T) {
	chunks := mustChunker(t, 3).Chunk(nil, "myvideo", "My Video")
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
}

func TestNewChunkerRejectsInvalidSize(t *testing.T) {
	for _, n := range []int{0, -1, -100} {
		if _, err := NewChunker(n); err == nil {
			t.Errorf("NewChunker(%d) should fail", n)
		}
	}
}

func TestTimestampLink(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: "Intro sentence.", StartMS: 65000, EndMS: 70000},
	}

	chunks := mustChunker(t, 1).Chunk(segments, "dQw4w9WgXcQ", "Some Video")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	link := chunks[0].Metadata.TimestampLink
	if link == nil {
		t.Fatal("expected timestamp link for 11-char video id")
	}
	if !strings.Contains(*link, "v=dQw4w9WgXcQ") || !strings.Contains(*link, "t=65s") {
		t.Errorf("unexpected link %q", *link)
	}

	chunks = mustChunker(t, 1).Chunk(segments, "short1", "Some Video")
	if chunks[0].Metadata.TimestampLink != nil {
		t.Errorf("expected no timestamp link for 6-char video id, got %q", *chunks[0].Metadata.TimestampLink)
	}
}

func TestChunkGroupingLaw(t *testing.T) {
	// 5 sentences, 2 per chunk -> ceil(5/2) = 3 chunks of sizes 2, 2, 1.
	segments := []core.TranscriptSegment{
		{Text: "One. Two.", StartMS: 0, EndMS: 2000},
		{Text: "Three. Four.", StartMS: 2000, EndMS: 4000},
		{Text: "Five.", StartMS: 4000, EndMS: 5000},
	}
	chunks := mustChunker(t, 2).Chunk(segments, "vid", "Counting")

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantTexts := []string{"One. Two.", "Three. Four.", "Five."}
	for i, want := range wantTexts {
		if chunks[i].Text != want {
			t.Errorf("chunk %d text = %q, want %q", i, chunks[i].Text, want)
		}
	}
}

func TestChunkIndexContiguityAndTimeOrdering(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: "First thought here.", StartMS: 0, EndMS: 1500},
		{Text: "A second one follows.", StartMS: 1500, EndMS: 3200},
		{Text: "Then a third.", StartMS: 3200, EndMS: 4100},
		{Text: "And a fourth to close.", StartMS: 4100, EndMS: 6000},
	}
	chunks := mustChunker(t, 1).Chunk(segments, "vid", "Ordering")

	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	prevStart := -1
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Errorf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.EndMS < c.StartMS {
			t.Errorf("chunk %d end %d before start %d", i, c.EndMS, c.StartMS)
		}
		if c.StartMS < prevStart {
			t.Errorf("chunk %d start %d rewinds before %d", i, c.StartMS, prevStart)
		}
		prevStart = c.StartMS
	}
}

func TestChunkSpansSegmentBoundaries(t *testing.T) {
	// A sentence that starts in one segment and ends in the next must cover
	// both segments' time ranges.
	segments := []core.TranscriptSegment{
		{Text: "This sentence keeps", StartMS: 0, EndMS: 900},
		{Text: "going for a while.", StartMS: 900, EndMS: 2100},
	}
	chunks := mustChunker(t, 1).Chunk(segments, "vid", "Boundary")

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "This sentence keeps going for a while." {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
	if chunks[0].StartMS != 0 || chunks[0].EndMS != 2100 {
		t.Errorf("chunk time = [%d, %d], want [0, 2100]", chunks[0].StartMS, chunks[0].EndMS)
	}
}

func TestChunkRepeatedTextDoesNotRewind(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: "Same words.", StartMS: 0, EndMS: 1000},
		{Text: "Same words.", StartMS: 1000, EndMS: 2000},
		{Text: "Same words.", StartMS: 2000, EndMS: 3000},
	}
	chunks := mustChunker(t, 1).Chunk(segments, "vid", "Repeats")

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantTimes := [][2]int{{0, 1000}, {1000, 2000}, {2000, 3000}}
	for i, want := range wantTimes {
		if chunks[i].StartMS != want[0] || chunks[i].EndMS != want[1] {
			t.Errorf("chunk %d time = [%d, %d], want %v", i, chunks[i].StartMS, chunks[i].EndMS, want)
		}
	}
}

func TestChunkIdempotence(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: "Alpha beta gamma.", StartMS: 0, EndMS: 1200},
		{Text: "Delta epsilon.", StartMS: 1200, EndMS: 2400},
		{Text: "Zeta eta theta.", StartMS: 2400, EndMS: 3600},
	}
	c := mustChunker(t, 2)
	first := c.Chunk(segments, "vid", "Greek")
	second := c.Chunk(segments, "vid", "Greek")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated calls differ:\n%v\n%v", first, second)
	}
}

// missplitSplitter returns text the full transcript does not contain
// verbatim, forcing the relocation fallback path.
type missplitSplitter struct{}

func (missplitSplitter) Split(text string) []string {
	return []string{strings.ToUpper(text[:10])}
}

func TestChunkAlignmentFallback(t *testing.T) {
	segments := []core.TranscriptSegment{
		{Text: "Some transcript text here.", StartMS: 500, EndMS: 4000},
	}
	c, err := NewChunkerWithSplitter(1, missplitSplitter{})
	if err != nil {
		t.Fatalf("NewChunkerWithSplitter failed: %v", err)
	}

	chunks := c.Chunk(segments, "vid", "Fallback")
	if len(chunks) != 1 {
		t.Fatalf("fallback must still emit a chunk, got %d", len(chunks))
	}
	if chunks[0].StartMS != 500 || chunks[0].EndMS != 4000 {
		t.Errorf("fallback chunk time = [%d, %d], want [500, 4000]", chunks[0].StartMS, chunks[0].EndMS)
	}
}

func TestRegexSentenceSplitter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "terminal punctuation variants",
			in:   "First one. Second one? Third one! Trailing remainder",
			want: []string{"First one.", "Second one?", "Third one!", "Trailing remainder"},
		},
		{
			name: "stacked punctuation stays with its sentence",
			in:   "Really?! Yes.",
			want: []string{"Really?!", "Yes."},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "whitespace only",
			in:   "   ",
			want: nil,
		},
		{
			name: "trailing space after final sentence",
			in:   "All done. ",
			want: []string{"All done."},
		},
	}

	var splitter RegexSentenceSplitter
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitter.Split(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
