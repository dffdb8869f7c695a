package service

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/aussiebroadwan/trame/internal/trame/domain"
)

// ChunkHash computes the block fingerprint: SHA-256 over the trimmed content,
// truncated to its first 16 bytes and hex-encoded (32 characters). Leading
// and trailing whitespace never changes a block's identity.
func ChunkHash(content string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(content)))
	return hex.EncodeToString(sum[:16])
}

// ChunkNote splits Markdown note content into logical blocks (headings,
// paragraphs, fenced code blocks, lists, horizontal rules) and fingerprints
// each one. Offsets are rune indices into the original content.
func ChunkNote(content string) []domain.Chunk {
	parsed := parseChunks(content)
	for i := range parsed {
		parsed[i].Hash = ChunkHash(parsed[i].Content)
	}
	return parsed
}

func parseChunks(content string) []domain.Chunk {
	var chunks []domain.Chunk
	chars := []rune(content)
	n := len(chars)
	offset := 0

	for offset < n {
		// Skip indentation and blank lines between blocks.
		for offset < n && (chars[offset] == ' ' || chars[offset] == '\t') {
			offset++
		}
		for offset < n && chars[offset] == '\n' {
			offset++
		}
		if offset >= n {
			break
		}

		// Fenced code block.
		if isFence(chars, offset) {
			start := offset
			offset += 3
			for offset < n && chars[offset] != '\n' {
				offset++
			}
			if offset < n {
				offset++
			}
			for offset < n {
				if isFence(chars, offset) {
					offset += 3
					for offset < n && chars[offset] != '\n' {
						offset++
					}
					if offset < n {
						offset++
					}
					break
				}
				offset++
			}
			chunks = append(chunks, domain.Chunk{
				Type:        domain.ChunkCodeBlock,
				Content:     string(chars[start:offset]),
				StartOffset: start,
				EndOffset:   offset,
			})
			continue
		}

		// ATX heading. A run of up to six '#' must be followed by a space,
		// otherwise the line falls through to the paragraph case.
		if chars[offset] == '#' {
			start := offset
			level := 0
			for offset < n && chars[offset] == '#' && level < 6 {
				level++
				offset++
			}
			if offset < n && chars[offset] == ' ' {
				for offset < n && chars[offset] != '\n' {
					offset++
				}
				if offset < n {
					offset++
				}
				chunks = append(chunks, domain.Chunk{
					Type:         domain.ChunkHeading,
					HeadingLevel: level,
					Content:      strings.TrimRight(string(chars[start:offset]), " \t\n"),
					StartOffset:  start,
					EndOffset:    offset,
				})
				continue
			}
			offset = start
		}

		// Horizontal rule: ---, *** or ___.
		if isHRStart(chars, offset) {
			start := offset
			c := chars[offset]
			for offset < n && chars[offset] == c {
				offset++
			}
			for offset < n && chars[offset] != '\n' {
				offset++
			}
			if offset < n {
				offset++
			}
			chunks = append(chunks, domain.Chunk{
				Type:        domain.ChunkHorizontalRule,
				Content:     strings.TrimRight(string(chars[start:offset]), " \t\n"),
				StartOffset: start,
				EndOffset:   offset,
			})
			continue
		}

		// List: consecutive list items, a blank line before a non-item ends it.
		if isListItem(chars, offset) {
			start := offset
			for offset < n && isListItem(chars, offset) {
				for offset < n && chars[offset] != '\n' {
					offset++
				}
				if offset < n {
					offset++
				}
				if offset < n && chars[offset] == '\n' {
					peek := offset + 1
					if peek < n && isListItem(chars, peek) {
						offset = peek
					}
					// A double newline or anything else ends the list.
					break
				}
			}
			chunks = append(chunks, domain.Chunk{
				Type:        domain.ChunkList,
				Content:     strings.TrimRight(string(chars[start:offset]), " \t\n"),
				StartOffset: start,
				EndOffset:   offset,
			})
			continue
		}

		// Paragraph: runs until a blank line or the start of another block.
		start := offset
		for {
			for offset < n && chars[offset] != '\n' {
				offset++
			}
			if offset < n {
				offset++
			}
			if offset >= n {
				break
			}
			if chars[offset] == '\n' {
				break
			}
			if chars[offset] == '#' || isFence(chars, offset) ||
				isListItem(chars, offset) || isHRStart(chars, offset) {
				break
			}
		}

		if start < offset {
			trimmed := strings.TrimSpace(string(chars[start:offset]))
			if trimmed != "" {
				chunks = append(chunks, domain.Chunk{
					Type:        domain.ChunkParagraph,
					Content:     trimmed,
					StartOffset: start,
					EndOffset:   offset,
				})
			}
		}
	}

	return chunks
}

func isFence(chars []rune, offset int) bool {
	return offset+2 < len(chars) &&
		chars[offset] == '`' && chars[offset+1] == '`' && chars[offset+2] == '`'
}

func isListItem(chars []rune, offset int) bool {
	n := len(chars)
	if offset >= n {
		return false
	}

	c := chars[offset]
	if (c == '-' || c == '*' || c == '+') && offset+1 < n && chars[offset+1] == ' ' {
		return true
	}

	// Ordered item: digits followed by '.' or ')' and a space.
	if c >= '0' && c <= '9' {
		i := offset + 1
		for i < n && chars[i] >= '0' && chars[i] <= '9' {
			i++
		}
		if i < n && (chars[i] == '.' || chars[i] == ')') && i+1 < n && chars[i+1] == ' ' {
			return true
		}
	}

	return false
}

func isHRStart(chars []rune, offset int) bool {
	if offset+2 >= len(chars) {
		return false
	}
	c := chars[offset]
	return (c == '-' || c == '*' || c == '_') &&
		chars[offset+1] == c && chars[offset+2] == c
}
