// Package extract turns rendered web pages into structured data by asking a
// language model to fill a JSON schema.
package extract

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/cryptovalleyjobs/jobfeed/internal/ai"
	"github.com/cryptovalleyjobs/jobfeed/internal/browser"
)

const systemPrompt = "You are a precise structured data extractor for careers and job posting pages."

//go:embed prompts/extract.md
var extractPromptRaw string

var extractTemplate = template.Must(template.New("extract").Parse(extractPromptRaw))

// Request describes one extraction: which page, what to look for and the shape
// of the answer.
type Request struct {
	URL         string
	Instruction string
	SchemaName  string
	Schema      *jsonschema.Definition
	WaitUntil   string // page readiness condition per source; empty uses the loader default
}

// Extractor is the page extraction capability. A nil result with a nil error
// means the page yielded nothing.
type Extractor interface {
	Extract(ctx context.Context, req Request) ([]byte, error)
}

// PageLoader renders a page and returns its HTML.
type PageLoader interface {
	Load(ctx context.Context, url, waitUntil string) (string, error)
}

// LLMExtractor loads the page in a browser, reduces it to text and asks the
// model for schema-shaped JSON.
type LLMExtractor struct {
	loader   PageLoader
	llm      ai.LLMProvider
	maxChars int
	logger   *slog.Logger
}

// NewLLMExtractor creates an extractor. maxChars caps the page text sent to the
// model.
func NewLLMExtractor(loader PageLoader, llm ai.LLMProvider, maxChars int, logger *slog.Logger) *LLMExtractor {
	return &LLMExtractor{
		loader:   loader,
		llm:      llm,
		maxChars: maxChars,
		logger:   logger,
	}
}

func (e *LLMExtractor) Extract(ctx context.Context, req Request) ([]byte, error) {
	html, err := e.loader.Load(ctx, req.URL, req.WaitUntil)
	if err != nil {
		return nil, err
	}

	text, err := browser.PageText(html, req.URL, e.maxChars)
	if err != nil {
		return nil, fmt.Errorf("reduce page %s: %w", req.URL, err)
	}
	if text == "" {
		e.logger.Debug("page has no text", "url", req.URL)
		return nil, nil
	}

	var prompt bytes.Buffer
	if err := extractTemplate.Execute(&prompt, struct {
		Instruction string
		URL         string
		Page        string
	}{req.Instruction, req.URL, text}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	out, err := e.llm.Complete(ctx, ai.Request{
		System:     systemPrompt,
		Prompt:     prompt.String(),
		SchemaName: req.SchemaName,
		Schema:     req.Schema,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", req.URL, err)
	}

	e.logger.Debug("page extracted", "url", req.URL, "page_chars", len(text), "response_bytes", len(out))
	return []byte(out), nil
}
