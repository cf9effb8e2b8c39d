package domain

// Metadata describes where a chunk came from.
type Metadata struct {
	Filename string
	Type     string
	Filepath string
	// Extra holds open-ended attributes such as size or ingest_id.
	Extra map[string]string
}

// Span is a half-open [Start, End) character range into the source text.
type Span struct {
	Start int
	End   int
}

// Chunk is a bounded contiguous span of a document's text, the unit of retrieval.
type Chunk struct {
	// ID is unique within one ingestion and assigned left to right from 0.
	ID       int
	Text     string
	Metadata Metadata
	// Offsets is nil for short documents stored as a single chunk.
	Offsets *Span
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Stats is the store summary shown to the UI.
type Stats struct {
	Chunks        int
	Documents     int
	HasEmbeddings bool
}

// IngestReport describes the outcome of ingesting one document.
type IngestReport struct {
	Filename string
	Type     string
	IngestID string
	Chunks   int
	Embedded bool
	Summary  string
	// Preview is the start of the extracted text, cut for display.
	Preview string
}
