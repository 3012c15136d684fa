// Package gdocai recognises text with Google Document AI.
//
// Page and cell images are sent to an OCR processor as PNG raw documents and
// the returned layout is converted to hOCR, so Document AI can stand in for
// Tesseract anywhere an ocr.Engine is accepted.
//
// Usage requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Credentials via Config.CredentialsFile or GOOGLE_APPLICATION_CREDENTIALS
//
// Every Recognize call is one billable API request. Prefer Tesseract for
// cell-by-cell extraction of large tables.
package gdocai

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/ocr"
)

// ErrNoResponse is returned by LastResponseJSON before any request succeeded.
var ErrNoResponse = errors.New("gdocai: no response recorded")

// Config identifies the Document AI processor.
type Config struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"` // "us" or "eu"
	ProcessorID     string `yaml:"processor_id"`
	CredentialsFile string `yaml:"credentials_file"` // "" uses GOOGLE_APPLICATION_CREDENTIALS
}

func (c *Config) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

func (c *Config) validate() error {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.Location == "" {
		missing = append(missing, "location")
	}
	if c.ProcessorID == "" {
		missing = append(missing, "processor_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: documentai config lacks %s", ocr.ErrEngineUnavailable, strings.Join(missing, ", "))
	}
	return nil
}

// Engine is an ocr.HOCREngine backed by a Document AI processor. It is safe
// for concurrent use.
type Engine struct {
	cfg    Config
	client processor
	retry  retryPolicy

	mu   sync.Mutex
	last *documentaipb.Document
}

// NewEngine connects to the regional Document AI endpoint. The caller must
// Close the engine.
func NewEngine(ctx context.Context, cfg *Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	creds := cfg.CredentialsFile
	if creds == "" {
		creds = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	if creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create Document AI client: %v", ocr.ErrEngineUnavailable, err)
	}
	return newEngine(*cfg, client), nil
}

func newEngine(cfg Config, client processor) *Engine {
	return &Engine{cfg: cfg, client: client, retry: defaultRetry}
}

// Close releases the underlying connection.
func (e *Engine) Close() error { return e.client.Close() }

func (e *Engine) Name() string { return "documentai" }

// Recognize implements ocr.Engine. Document AI segments pages itself, so
// mode is ignored.
func (e *Engine) Recognize(ctx context.Context, img image.Image, _ ocr.PageSegMode) (string, error) {
	doc, err := e.processImage(ctx, img)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.GetText()), nil
}

// RecognizeHOCR implements ocr.HOCREngine.
func (e *Engine) RecognizeHOCR(ctx context.Context, img image.Image, page int) (hocr.Page, error) {
	doc, err := e.processImage(ctx, img)
	if err != nil {
		return hocr.Page{}, err
	}
	if len(doc.GetPages()) == 0 {
		return hocr.Page{}, hocr.ErrNoPages
	}
	return CreateHOCRPage(doc.GetPages()[0], doc.GetText(), page)
}

// LastResponseJSON returns the most recent Document AI response as indented
// JSON, for debugging layout conversion.
func (e *Engine) LastResponseJSON() ([]byte, error) {
	e.mu.Lock()
	last := e.last
	e.mu.Unlock()
	if last == nil {
		return nil, ErrNoResponse
	}
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(last)
}

func (e *Engine) processImage(ctx context.Context, img image.Image) (*documentaipb.Document, error) {
	data, err := ocr.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	doc, err := e.process(ctx, data, "image/png")
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.last = doc
	e.mu.Unlock()
	return doc, nil
}
