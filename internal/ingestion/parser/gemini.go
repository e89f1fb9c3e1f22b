package parser

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"spms_backend/platform/config"
)

const parsePrompt = `You are a CRM assistant. Extract structured fields from the sales note below.

Respond with a single JSON object:
{
  "companyName": "the client company the note is about (required)",
  "actionType": "one of: meeting, proposal, development, documentation, email",
  "content": "a one or two sentence summary of what happened",
  "dealName": "the deal or project name if one is mentioned, else empty",
  "dealStage": "the lifecycle stage code (L0-L7, P0-P2, LOST, HOLD) if one is mentioned, else empty"
}

If you cannot identify a company, set companyName to an empty string.

Note:
`

// GeminiParser parses notes with the Gemini API.
type GeminiParser struct {
	client *genai.Client
	model  string
}

// NewGeminiParser creates a parser backed by the configured Gemini model.
func NewGeminiParser(ctx context.Context, cfg config.ParserConfig) (*GeminiParser, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiParser{client: client, model: cfg.GetGeminiModel()}, nil
}

// Compile-time check that GeminiParser implements NoteParser.
var _ NoteParser = (*GeminiParser)(nil)

// Parse sends the note to the model and decodes its JSON reply. Model refusal
// or unusable output surfaces as a *ParseError so the worker can fail the job
// with a reason rather than an opaque transport error.
func (p *GeminiParser) Parse(ctx context.Context, rawText string) (ParsedNote, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		genai.Text(parsePrompt+rawText),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return ParsedNote{}, err
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return ParsedNote{}, &ParseError{Reason: "model returned no content"}
	}

	var note ParsedNote
	if err := json.Unmarshal([]byte(stripFences(text)), &note); err != nil {
		return ParsedNote{}, &ParseError{Reason: "model returned invalid JSON"}
	}

	note.CompanyName = strings.TrimSpace(note.CompanyName)
	if note.CompanyName == "" {
		return ParsedNote{}, &ParseError{Reason: "no company name identified in note"}
	}
	return note, nil
}

// stripFences removes a markdown code fence wrapper some models emit around
// JSON despite the response MIME type.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
