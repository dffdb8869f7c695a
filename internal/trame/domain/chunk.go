package domain

// ChunkType classifies a logical block of a Markdown document.
type ChunkType string

const (
	ChunkHeading        ChunkType = "heading"
	ChunkParagraph      ChunkType = "paragraph"
	ChunkCodeBlock      ChunkType = "code_block"
	ChunkList           ChunkType = "list"
	ChunkHorizontalRule ChunkType = "hr"
)

// Chunk is one logical block of note content with a content-derived hash,
// so clients can diff a document block-by-block.
type Chunk struct {
	Type         ChunkType `json:"type"`
	HeadingLevel int       `json:"heading_level,omitempty"` // 1-6, headings only
	Content      string    `json:"content"`
	Hash         string    `json:"hash"` // first 16 bytes of SHA-256, hex
	StartOffset  int       `json:"start_offset"`
	EndOffset    int       `json:"end_offset"`
}
