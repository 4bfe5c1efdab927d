package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
	"github.com/AbdulbariSoylemez/SterkAgents/core"
	"github.com/AbdulbariSoylemez/SterkAgents/processors"
	"github.com/AbdulbariSoylemez/SterkAgents/storage"
)

type AskRequest struct {
	CollectionName string `json:"collection_name"`
	Question       string `json:"question"`
}

type SourceDocument struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

type AskResponse struct {
	Answer          string           `json:"answer"`
	SourceDocuments []SourceDocument `json:"source_documents"`
}

// QueryManager answers questions against one collection: retrieve the most
// relevant chunks, pull a frame from the top hit's video, and hand both to
// the chat model.
type QueryManager struct {
	cfg     *config.Config
	store   storage.VectorStore
	library *Library
	chat    *openai.Client
}

func NewQueryManager(cfg *config.Config, store storage.VectorStore, library *Library) *QueryManager {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &QueryManager{
		cfg:     cfg,
		store:   store,
		library: library,
		chat:    openai.NewClientWithConfig(clientConfig),
	}
}

const retrievalTopK = 4

const collectionPreparingAnswer = "Bu egitim icin veritabani hazirlaniyor. Bu islem birkac dakika surebilir. Lutfen biraz bekledikten sonra tekrar sorunuzu sorun."

// Ask runs the full retrieval + generation path for one question.
func (q *QueryManager) Ask(ctx context.Context, collection, question string) (*AskResponse, error) {
	log.Printf("processing question against %q: %q", collection, question)
	totalStart := time.Now()

	retrievalStart := time.Now()
	hits, err := q.store.Search(collection, question, retrievalTopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	log.Printf("PERF: vector search took %.2f ms", float64(time.Since(retrievalStart).Microseconds())/1000)

	if len(hits) == 0 {
		return &AskResponse{
			Answer:          "No content was found in the videos related to your question.",
			SourceDocuments: []SourceDocument{},
		}, nil
	}

	frameURL := q.extractTopHitFrame(collection, hits[0])
	prompt := buildPrompt(formatContext(hits), question)

	message := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if frameURL != "" {
		message.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: frameURL}},
		}
	} else {
		message.Content = prompt
	}

	llmStart := time.Now()
	resp, err := q.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       q.cfg.ChatModel,
		Messages:    []openai.ChatCompletionMessage{message},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	log.Printf("PERF: LLM call took %.2f ms", float64(time.Since(llmStart).Microseconds())/1000)

	answer := ""
	if len(resp.Choices) > 0 {
		answer = resp.Choices[0].Message.Content
	}

	docs := make([]SourceDocument, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, SourceDocument{
			PageContent: h.Text,
			Metadata: map[string]any{
				"video_id":       h.Metadata.VideoID,
				"video_title":    h.Metadata.VideoTitle,
				"timestamp_link": h.Metadata.TimestampLink,
				"start_ms":       h.StartMS,
				"end_ms":         h.EndMS,
				"chunk_index":    h.ChunkIndex,
			},
		})
	}

	log.Printf("PERF: total question answering took %.2f ms", float64(time.Since(totalStart).Microseconds())/1000)
	return &AskResponse{Answer: answer, SourceDocuments: docs}, nil
}

// extractTopHitFrame grabs a frame from the top hit's source video at the
// chunk's start offset and returns it as a base64 data URL. Any failure just
// means the answer is produced without the visual context.
func (q *QueryManager) extractTopHitFrame(collection string, top core.Hit) string {
	dir, ok := q.library.Resolve(collection)
	if !ok {
		return ""
	}
	videoPath := filepath.Join(dir, top.Metadata.VideoTitle)
	if _, err := os.Stat(videoPath); err != nil {
		log.Printf("video file not found for frame extraction: %s", videoPath)
		return ""
	}

	tmp, err := os.CreateTemp("", "sterk-frame-*.jpg")
	if err != nil {
		return ""
	}
	framePath := tmp.Name()
	tmp.Close()
	defer os.Remove(framePath)

	frameStart := time.Now()
	if err := processors.ExtractFrameAt(videoPath, top.StartMS, framePath); err != nil {
		log.Printf("frame extraction failed: %v", err)
		return ""
	}
	data, err := os.ReadFile(framePath)
	if err != nil || len(data) == 0 {
		return ""
	}
	log.Printf("PERF: frame extraction took %.2f ms", float64(time.Since(frameStart).Microseconds())/1000)

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)
}

func formatContext(hits []core.Hit) string {
	var sb strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&sb, "--- Source Document %d ---\n", i+1)
		fmt.Fprintf(&sb, "Video Title: %s\n", h.Metadata.VideoTitle)
		fmt.Fprintf(&sb, "Timestamp: %s\n", core.FormatTimestampMS(h.StartMS))
		fmt.Fprintf(&sb, "Content: %s\n\n", h.Text)
	}
	return sb.String()
}

func buildPrompt(formattedContext, question string) string {
	return fmt.Sprintf(`You are "EgitimBot," an expert educational assistant. Your primary purpose is to provide clear and helpful answers to students using information strictly from the provided video transcripts.

PERSONA:
- A patient and supportive teacher
- Professional yet warm
- Focused on student learning

---
**CORE TASK & RULES**

**RULE #1: PRIMARY TASK - Answering from Video Content**
If the user's question is related to the provided video content, you MUST follow these rules:
- Answer ONLY with information from the SOURCE DOCUMENTS. Do not use external knowledge.
- Start your response directly with the Turkish phrase: "Bu konuda videoda..."
- Summarize the main point in 1-2 sentences.
- List key details using bullet points (*). Cite the source at the end of each bullet point: [Video: title, mm:ss]
- If the answer is not in the videos, state ONLY the Turkish sentence: "Bu konu videolarda ele alinmamis."
- End the response with the Turkish phrase: "Baska sorularin varsa sorabilirsin!"

**RULE #2: EXCEPTION - Answering Off-Topic Scientific Questions**
If the user's question is NOT related to the video content BUT is a scientific question (e.g., physics, space, technology, biology), provide a concise, accurate answer in general assistant mode, without the video-specific formatting, then gently guide the user back with: "Umarim bu aciklama yardimci olmustur. Derslerle ilgili baska sorun olursa, yine buradayim!"

**RULE #3: Handling Other Off-Topic Questions**
If the question is not related to the videos AND not a scientific question, state ONLY the Turkish sentence: "Ben bir egitim asistaniyim ve sadece ders icerikleri veya genel bilimsel konularda yardimci olabilirim."

**IMPORTANT:**
- Your final response must ALWAYS be in Turkish.
- Assess the user's question first to decide which rule to apply (Rule #1, #2, or #3).

---
SOURCE DOCUMENTS (Only for Rule #1):
%s

QUESTION: %s

ANSWER:`, formattedContext, question)
}

func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "question required"})
		return
	}
	dir, ok := s.library.Resolve(req.CollectionName)
	if !ok {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Collection not found: %s", req.CollectionName)})
		return
	}

	// A known course whose chunks aren't in the store yet gets built in the
	// background; the caller is told to retry instead of waiting.
	if status := s.ensureCollection(req.CollectionName, dir); status != prepStatusExists {
		core.WriteJSON(w, http.StatusOK, AskResponse{
			Answer:          collectionPreparingAnswer,
			SourceDocuments: []SourceDocument{},
		})
		return
	}

	resp, err := s.queries.Ask(r.Context(), req.CollectionName, req.Question)
	if err != nil {
		log.Printf("error answering question: %v", err)
		core.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Server error: %v", err)})
		return
	}
	core.WriteJSON(w, http.StatusOK, resp)
}
