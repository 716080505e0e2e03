package services

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	mu       sync.Mutex
	answer   func(prompt string) (string, error)
	embedErr error
	prompts  []string
	embeds   int
}

func (f *fakeLLM) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embeds++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string, _ float32) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	answer := f.answer
	f.mu.Unlock()

	if answer == nil {
		return "", fmt.Errorf("no answer configured")
	}
	return answer(prompt)
}

func (f *fakeLLM) GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, _ int) (string, error) {
	return f.GenerateText(ctx, prompt, temperature)
}

func (f *fakeLLM) promptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeStore struct {
	mu      sync.Mutex
	counts  map[string]uint64
	upserts int
	results map[string][]SearchResult
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: map[string]uint64{}, results: map[string][]SearchResult{}}
}

func (s *fakeStore) InitCollection(context.Context) error { return nil }

func (s *fakeStore) UpsertChunks(_ context.Context, docID, _ string, chunks []string, _ [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	s.counts[docID] += uint64(len(chunks))
	return nil
}

func (s *fakeStore) SearchSimilar(_ context.Context, _ []float32, filter SearchFilter, _ int) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.results[filter.DocType], nil
}

func (s *fakeStore) CountDocument(_ context.Context, docID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[docID], nil
}

func (s *fakeStore) DeleteDocument(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counts, docID)
	return nil
}

type memCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemCache() *memCache {
	return &memCache{values: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

type answerRule struct {
	contains string
	answer   string
}

// fakeRAG answers each question with the first rule whose text it contains.
type fakeRAG struct {
	mu           sync.Mutex
	processErr   error
	processBlock bool
	bundle       *ComprehensiveAnalysis
	bundleErr    error
	rules        []answerRule
	queryErr     error
	failOn       string
	questions    []string
}

func (f *fakeRAG) ProcessDocument(ctx context.Context, _ RAGDocument) error {
	if f.processBlock {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.processErr
}

func (f *fakeRAG) Query(_ context.Context, _ RAGDocument, question string) (string, error) {
	f.mu.Lock()
	f.questions = append(f.questions, question)
	f.mu.Unlock()

	if f.queryErr != nil {
		return "", f.queryErr
	}
	if f.failOn != "" && strings.Contains(question, f.failOn) {
		return "", fmt.Errorf("query failed")
	}
	for _, rule := range f.rules {
		if strings.Contains(question, rule.contains) {
			return rule.answer, nil
		}
	}
	return "", nil
}

func (f *fakeRAG) ComprehensiveAnalysis(context.Context, RAGDocument) (*ComprehensiveAnalysis, error) {
	if f.bundleErr != nil {
		return nil, f.bundleErr
	}
	if f.bundle == nil {
		return nil, fmt.Errorf("no bundle")
	}
	return f.bundle, nil
}

func (f *fakeRAG) asked(substr string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, q := range f.questions {
		if strings.Contains(q, substr) {
			out = append(out, q)
		}
	}
	return out
}

// buildDocx returns a minimal DOCX holding one paragraph per line.
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body.String() + `</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return buf.Bytes()
}
