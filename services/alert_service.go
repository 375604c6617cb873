package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// alertChunkLimit caps how many leading chunks go into the summary prompt.
const alertChunkLimit = 5

// Mailer delivers a plain-text notification message.
type Mailer interface {
	Send(subject, body string) error
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Recipient string
}

func (m *SMTPMailer) Send(subject, body string) error {
	msg := strings.Join([]string{
		"From: " + m.Sender,
		"To: " + m.Recipient,
		"Subject: " + subject,
		"",
		body,
	}, "\r\n")
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	auth := smtp.PlainAuth("", m.Sender, m.Password, m.Host)
	return smtp.SendMail(addr, auth, m.Sender, []string{m.Recipient}, []byte(msg))
}

// AlertService emails a short model-written summary whenever a new document
// is ingested.
type AlertService struct {
	llm         llms.Model
	mailer      Mailer
	maxTokens   int
	temperature float64
}

func NewAlertService(llm llms.Model, mailer Mailer, maxTokens int, temperature float64) *AlertService {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AlertService{
		llm:         llm,
		mailer:      mailer,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// NotifyNewDocument summarizes the first chunks of the document and sends the
// notification mail. It returns the summary it mailed.
func (a *AlertService) NotifyNewDocument(ctx context.Context, sourceID string, chunks []string) (string, error) {
	if len(chunks) > alertChunkLimit {
		chunks = chunks[:alertChunkLimit]
	}
	contextBlock := strings.Join(chunks, "\n\n")

	resp, err := a.llm.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(llms.ChatMessageTypeSystem, "You summarize new documents for alerting emails."),
			llms.TextParts(llms.ChatMessageTypeHuman, "Summarize this document:\n"+contextBlock),
		},
		llms.WithMaxTokens(a.maxTokens),
		llms.WithTemperature(a.temperature),
	)
	if err != nil {
		return "", fmt.Errorf("summarize document %s: %w", sourceID, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize document %s: completion service returned no choices", sourceID)
	}
	summary := strings.TrimSpace(resp.Choices[0].Content)

	subject := fmt.Sprintf("RAG agent: new document alert: %s", sourceID)
	body := fmt.Sprintf("New document ingested: %s\n\nSummary:\n%s", sourceID, summary)
	if err := a.mailer.Send(subject, body); err != nil {
		return "", fmt.Errorf("send alert mail for %s: %w", sourceID, err)
	}
	return summary, nil
}
