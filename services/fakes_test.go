package services

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// stubEmbedder derives deterministic vectors from keywords so retrieval
// tests can predict ranking without a live embedding service.
type stubEmbedder struct {
	err   error
	calls [][]string
}

func (s *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, &EmbeddingServiceError{Err: s.err}
	}
	s.calls = append(s.calls, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, &EmbeddingServiceError{Err: s.err}
	}
	return keywordVector(text), nil
}

func keywordVector(text string) []float32 {
	t := strings.ToLower(text)
	v := []float32{0, 0, 1}
	if strings.Contains(t, "refund") {
		v[0] = 1
	}
	if strings.Contains(t, "ship") {
		v[1] = 1
	}
	return v
}

// fakeLLM records the messages it was asked to complete and returns a canned
// response.
type fakeLLM struct {
	response     string
	err          error
	lastMessages []llms.MessageContent
}

func (f *fakeLLM) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMessages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.response}},
	}, nil
}

func (f *fakeLLM) Call(_ context.Context, _ string, _ ...llms.CallOption) (string, error) {
	return f.response, f.err
}

// promptText flattens the text parts of recorded messages for assertions.
func promptText(messages []llms.MessageContent) string {
	var sb strings.Builder
	for _, m := range messages {
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok {
				sb.WriteString(tc.Text)
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// fakeMailer captures the last message instead of delivering it.
type fakeMailer struct {
	subject string
	body    string
	err     error
	sent    int
}

func (m *fakeMailer) Send(subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	m.subject = subject
	m.body = body
	return nil
}
