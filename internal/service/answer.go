package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studyrag/internal/domain"
)

// FallbackAnswer is returned when no retrieved chunk passes the relevance
// threshold; the generation capability is not invoked in that case.
const FallbackAnswer = "I couldn't find any relevant notes in your database."

const systemPrompt = "You are an expert study assistant. You are tasked with creating " +
	"a structured study guide with bullet points for the user's provided TOPIC. " +
	"Answer the user's question using ONLY the provided CONTEXT below. " +
	"If the context doesn't contain the answer, say the question is off topic and " +
	"that you are only used to create study guide notes."

// Answerer embeds a query, retrieves relevant chunks from the vector store
// and synthesizes an answer grounded in them.
type Answerer struct {
	embedder   domain.Embedder
	store      domain.VectorStore
	generator  domain.Generator
	collection string
	limit      int
	threshold  float64
	log        *zap.SugaredLogger
}

// AnswererConfig wires the retrieval orchestrator and answer synthesizer.
type AnswererConfig struct {
	Embedder   domain.Embedder
	Store      domain.VectorStore
	Generator  domain.Generator
	Collection string
	// Limit is the maximum number of candidates fetched per query.
	Limit int
	// ScoreThreshold is the strict lower bound a candidate's score must
	// exceed to contribute to the context.
	ScoreThreshold float64
	Logger         *zap.SugaredLogger
}

func NewAnswerer(cfg AnswererConfig) *Answerer {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Answerer{
		embedder:   cfg.Embedder,
		store:      cfg.Store,
		generator:  cfg.Generator,
		collection: cfg.Collection,
		limit:      cfg.Limit,
		threshold:  cfg.ScoreThreshold,
		log:        log,
	}
}

// RetrieveContext embeds the query, searches the collection and assembles
// the passing results into labeled source blocks, preserving the store's
// descending-score order. The result may be empty.
func (a *Answerer) RetrieveContext(ctx context.Context, query string) (string, error) {
	vector, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return "", err
	}
	results, err := a.store.Search(ctx, a.collection, vector, a.limit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, r := range results {
		a.log.Debugw("retrieved candidate", "score", r.Score, "file", r.Payload.Filename, "chunk", r.Payload.ChunkIndex)
		if r.Score > a.threshold {
			b.WriteString("Source (")
			b.WriteString(r.Payload.Filename)
			b.WriteString("):\n")
			b.WriteString(r.Payload.TextContent)
			b.WriteString("\n\n")
		}
	}
	return b.String(), nil
}

// Answer retrieves context for the query and synthesizes an answer from it.
// An empty context short-circuits to the fixed fallback without calling the
// generation capability.
func (a *Answerer) Answer(ctx context.Context, query string) (string, error) {
	contextBlock, err := a.RetrieveContext(ctx, query)
	if err != nil {
		return "", err
	}
	if contextBlock == "" {
		a.log.Infow("no relevant context found", "query", query)
		return FallbackAnswer, nil
	}

	user := "CONTEXT:\n" + contextBlock + "\n\nUSER TOPIC:\n" + query
	answer, err := a.generator.Complete(ctx, systemPrompt, user)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	return answer, nil
}
