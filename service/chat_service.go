package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"casebrief-backend/index"
	"casebrief-backend/models"

	"github.com/google/uuid"
)

// DefaultChatTopK bounds evidence retrieved per chat query. Chat answers get
// a wider net than report categories because the question is open-ended.
const DefaultChatTopK = 10

// DefaultChatMinSimilarity is the similarity floor for chat retrieval.
const DefaultChatMinSimilarity = 0.30

var (
	ErrEmptyQuery        = errors.New("chat query is empty")
	ErrChatServiceNotSet = errors.New("chat service dependency not set")
)

// StreamGenerator is the streaming generation capability.
type StreamGenerator interface {
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, <-chan error)
}

// TokenEvent is one unit of a chat response stream. Either Token carries a
// text fragment, Err carries a terminal failure, or Done marks clean
// completion.
type TokenEvent struct {
	Token string
	Done  bool
	Err   error
}

// ChatService answers caseworker questions grounded in the document index.
type ChatService struct {
	caseStore CaseStore
	records   RecordSource
	embedder  QueryEmbedder
	streamer  StreamGenerator

	topK          int
	minSimilarity float64
	maxEvidence   int
}

// ChatServiceOption is a functional option for ChatService
type ChatServiceOption func(*ChatService)

// WithChatCaseStore sets the case store used to scope answers to a case
func WithChatCaseStore(store CaseStore) ChatServiceOption {
	return func(s *ChatService) {
		s.caseStore = store
	}
}

// WithChatRecordSource sets the embedding index
func WithChatRecordSource(records RecordSource) ChatServiceOption {
	return func(s *ChatService) {
		s.records = records
	}
}

// WithChatQueryEmbedder sets the query embedding capability
func WithChatQueryEmbedder(e QueryEmbedder) ChatServiceOption {
	return func(s *ChatService) {
		s.embedder = e
	}
}

// WithStreamGenerator sets the streaming generation capability
func WithStreamGenerator(g StreamGenerator) ChatServiceOption {
	return func(s *ChatService) {
		s.streamer = g
	}
}

// NewChatService creates a new chat service
func NewChatService(opts ...ChatServiceOption) *ChatService {
	s := &ChatService{
		topK:          DefaultChatTopK,
		minSimilarity: DefaultChatMinSimilarity,
		maxEvidence:   DefaultChatTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const chatSystemPrompt = "You are a research assistant for caseworkers supporting displaced persons. " +
	"Answer from the provided source material when it covers the question, citing the source file names. " +
	"When it does not, say so explicitly before answering from general knowledge. " +
	"You provide research support, not legal advice."

// ChatRequest represents one grounded chat question
type ChatRequest struct {
	Query  string
	CaseID *uuid.UUID
}

// Chat retrieves evidence for the query, streams a grounded answer and
// returns the event channel. The channel closes after a Done or Err event.
// Cancelling ctx stops emission mid-stream.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (<-chan TokenEvent, error) {
	if s.records == nil || s.embedder == nil || s.streamer == nil {
		return nil, ErrChatServiceNotSet
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}

	var cs *models.Case
	if req.CaseID != nil {
		if s.caseStore == nil {
			return nil, ErrChatServiceNotSet
		}
		loaded, err := s.caseStore.GetByID(ctx, *req.CaseID)
		if err != nil {
			return nil, ErrCaseNotFound
		}
		cs = loaded
	}

	evidence := s.retrieveChatEvidence(ctx, req.Query, cs)

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "QUESTION:\n%s\n\n", req.Query)
	if cs != nil {
		fmt.Fprintf(&prompt, "CASE CONTEXT:\n%s\n", caseSummary(cs))
	}
	fmt.Fprintf(&prompt, "\nSOURCE MATERIAL:\n%s\n", evidence)

	tokens, errs := s.streamer.GenerateStream(ctx, chatSystemPrompt, prompt.String())

	events := make(chan TokenEvent)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case token, ok := <-tokens:
				if !ok {
					// Token channel closed: the stream either finished or
					// failed; the error channel settles first.
					final := TokenEvent{Done: true}
					if err := <-errs; err != nil {
						final = TokenEvent{Err: err}
					}
					select {
					case events <- final:
					case <-ctx.Done():
					}
					return
				}
				select {
				case events <- TokenEvent{Token: token}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}

// retrieveChatEvidence ranks the index for the query, scoped to the case's
// jurisdiction when a case is attached. Embedding or ranking failures degrade
// to the no-evidence marker so the answer can still proceed on general
// knowledge, flagged as such by the system prompt.
func (s *ChatService) retrieveChatEvidence(ctx context.Context, query string, cs *models.Case) string {
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("Warning: chat query embedding failed: %v", err)
		return index.NoEvidenceMarker
	}

	records := s.records.Records()

	var results []models.RetrievalResult
	if cs != nil && cs.Jurisdiction != "" {
		results, err = index.RankByCategory(vector, records, cs.Jurisdiction, s.topK, s.minSimilarity)
		if err != nil {
			log.Printf("Warning: scoped chat ranking failed: %v", err)
		}
	}
	if len(results) == 0 {
		results, err = index.Rank(vector, records, s.topK, s.minSimilarity)
		if err != nil {
			log.Printf("Warning: chat ranking failed: %v", err)
			return index.NoEvidenceMarker
		}
	}

	return index.BuildEvidenceBlock(results, s.maxEvidence)
}
