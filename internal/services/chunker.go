package services

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText packs paragraphs into chunks of at most maxChunkSize runes.
// Paragraphs that are too long are packed sentence by sentence. Each new
// chunk starts with the last overlap runes of the previous one.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	p := &chunkPacker{maxSize: maxChunkSize, overlap: overlap}

	for _, para := range strings.Split(normalizeNewlines(text), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			p.add(para, "\n\n")
			continue
		}

		for _, sentence := range splitIntoSentences(para) {
			p.add(sentence, " ")
		}
	}

	return p.finish()
}

type chunkPacker struct {
	maxSize int
	overlap int
	chunks  []string
	current strings.Builder
	// seeded marks a chunk that so far only holds overlap text.
	seeded bool
}

func (p *chunkPacker) add(piece, sep string) {
	if p.current.Len() > 0 && utf8.RuneCountInString(p.current.String())+len(sep)+utf8.RuneCountInString(piece) > p.maxSize {
		p.flush(sep)
	}
	if p.current.Len() > 0 {
		p.current.WriteString(sep)
	}
	p.current.WriteString(piece)
	p.seeded = false
}

func (p *chunkPacker) flush(sep string) {
	if p.seeded {
		p.current.Reset()
		return
	}

	chunk := p.current.String()
	p.chunks = append(p.chunks, chunk)
	p.current.Reset()

	if tail := lastRunes(chunk, p.overlap); tail != "" {
		p.current.WriteString(tail)
		p.seeded = true
	}
}

func (p *chunkPacker) finish() []string {
	if p.current.Len() > 0 && !p.seeded {
		p.chunks = append(p.chunks, p.current.String())
	}
	return p.chunks
}

func splitIntoSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}

// normalizeNewlines converts CRLF and CR line endings to LF.
func normalizeNewlines(text string) string {
	return strings.Join(splitLines(text), "\n")
}
