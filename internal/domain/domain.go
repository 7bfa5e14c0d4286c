package domain

import "context"

// Chunk is a contiguous window of a document's extracted text, the unit of
// embedding and retrieval.
type Chunk struct {
	Filename string
	Index    int
	Text     string
}

// Payload is the metadata stored alongside a vector in the collection.
type Payload struct {
	Filename    string `json:"filename"`
	ChunkIndex  int    `json:"chunk_index"`
	TextContent string `json:"text_content"`
}

// Point is a chunk paired with its embedding vector and a durable identity.
// IDs are never reused within a collection's lifetime.
type Point struct {
	ID      uint64
	Vector  []float64
	Payload Payload
}

// Schema describes a collection's vector configuration. The vector field is
// always named "embedding".
type Schema struct {
	Collection string
	VectorSize int
	Distance   Distance
}

// Distance is the similarity metric configured on a collection.
type Distance string

const (
	DistanceCosine Distance = "cosine"
	DistanceEuclid Distance = "euclid"
	DistanceDot    Distance = "dot"
)

// SearchResult is one candidate returned by a similarity query. Results
// arrive from the store in descending score order and are never re-sorted.
type SearchResult struct {
	Score   float64
	Payload Payload
}

// Embedder converts free text into a fixed-dimensionality vector via a
// remote embedding capability.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Generator produces a completion from a system instruction and user message.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// VectorStore manages a collection's schema and performs point upsert and
// similarity search.
type VectorStore interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	CreateCollection(ctx context.Context, schema Schema) error
	Upsert(ctx context.Context, collection string, point Point) error
	Search(ctx context.Context, collection string, vector []float64, limit int) ([]SearchResult, error)
	// EnsureAndUpsert creates the collection if absent, then upserts. This
	// is the write entry point used by ingestion.
	EnsureAndUpsert(ctx context.Context, schema Schema, point Point) error
}

// Extractor pulls plain text out of one document file.
type Extractor interface {
	Extract(path string) (string, error)
}
