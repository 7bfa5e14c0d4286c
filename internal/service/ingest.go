package service

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"studyrag/internal/chunker"
	"studyrag/internal/domain"
	"studyrag/internal/extract"
)

// Ingester walks a document tree, extracts text per file, chunks it, embeds
// each chunk and upserts it into the vector store with a unique id.
type Ingester struct {
	chunker    *chunker.WindowChunker
	embedder   domain.Embedder
	store      domain.VectorStore
	extractors extract.Registry
	schema     domain.Schema
	ids        *IDAllocator
	workers    int
	log        *zap.SugaredLogger
}

// IngesterConfig wires the ingestion orchestrator.
type IngesterConfig struct {
	Chunker    *chunker.WindowChunker
	Embedder   domain.Embedder
	Store      domain.VectorStore
	Extractors extract.Registry
	Schema     domain.Schema
	IDs        *IDAllocator
	// Workers bounds concurrent embed+upsert pairs within one document.
	// 1 processes chunks strictly in order.
	Workers int
	Logger  *zap.SugaredLogger
}

func NewIngester(cfg IngesterConfig) *Ingester {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	ids := cfg.IDs
	if ids == nil {
		ids = NewIDAllocator()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Ingester{
		chunker:    cfg.Chunker,
		embedder:   cfg.Embedder,
		store:      cfg.Store,
		extractors: cfg.Extractors,
		schema:     cfg.Schema,
		ids:        ids,
		workers:    workers,
		log:        log,
	}
}

// IngestDir recursively processes every regular file under root. Files with
// unrecognized extensions, failed extraction or empty text are skipped with
// a notice; embedding or store failures abort the run.
func (s *Ingester) IngestDir(ctx context.Context, root string) error {
	// Create the collection up front so concurrent chunk writers never race
	// on first creation.
	if err := s.ensureCollection(ctx); err != nil {
		return err
	}

	processed := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		n, err := s.ingestFile(ctx, path)
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}
		processed += n
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Infow("ingestion finished", "chunks", processed)
	return nil
}

func (s *Ingester) ensureCollection(ctx context.Context) error {
	exists, err := s.store.CollectionExists(ctx, s.schema.Collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	s.log.Infow("creating collection", "collection", s.schema.Collection,
		"vector_size", s.schema.VectorSize, "distance", s.schema.Distance)
	return s.store.CreateCollection(ctx, s.schema)
}

// ingestFile returns the number of chunks written for the file. Extraction
// problems are logged and swallowed so one bad file never aborts the run.
func (s *Ingester) ingestFile(ctx context.Context, path string) (int, error) {
	ex, ok := s.extractors.For(path)
	if !ok {
		s.log.Infow("skipping unsupported file", "file", path)
		return 0, nil
	}
	text, err := ex.Extract(path)
	if err != nil {
		s.log.Warnw("skipping unreadable file", "error", &domain.ExtractionError{Path: path, Err: err})
		return 0, nil
	}
	if strings.TrimSpace(text) == "" {
		s.log.Infow("skipping empty file", "file", path)
		return 0, nil
	}

	filename := filepath.Base(path)
	chunks := s.chunker.Chunk(filename, text)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, ch := range chunks {
		ch := ch
		g.Go(func() error {
			vector, err := s.embedder.Embed(ctx, ch.Text)
			if err != nil {
				return err
			}
			id := s.ids.Next()
			point := domain.Point{
				ID:     id,
				Vector: vector,
				Payload: domain.Payload{
					Filename:    ch.Filename,
					ChunkIndex:  ch.Index,
					TextContent: ch.Text,
				},
			}
			if err := s.store.EnsureAndUpsert(ctx, s.schema, point); err != nil {
				return err
			}
			s.log.Infow("processed chunk", "file", ch.Filename, "chunk", ch.Index, "id", id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
