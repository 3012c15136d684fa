package gdocai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// processor is the subset of the Document AI client the engine uses.
type processor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

type retryPolicy struct {
	Attempts int
	Backoff  gax.Backoff
}

var defaultRetry = retryPolicy{
	Attempts: 3,
	Backoff:  gax.Backoff{Initial: time.Second, Max: 16 * time.Second, Multiplier: 2},
}

// retryable reports whether err is a quota or availability failure worth
// another attempt.
func retryable(err error) bool {
	switch status.Code(err) {
	case codes.ResourceExhausted, codes.Unavailable:
		return true
	default:
		return false
	}
}

// process sends content to the processor, retrying transient failures with
// exponential backoff.
func (e *Engine) process(ctx context.Context, content []byte, mimeType string) (*documentaipb.Document, error) {
	req := &documentaipb.ProcessRequest{
		Name: e.cfg.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
		SkipHumanReview: true,
	}

	bo := e.retry.Backoff
	for attempt := 1; ; attempt++ {
		resp, err := e.client.ProcessDocument(ctx, req)
		if err == nil {
			return resp.GetDocument(), nil
		}
		if !retryable(err) || attempt >= e.retry.Attempts {
			return nil, fmt.Errorf("process document: %w", err)
		}

		delay := bo.Pause()
		slog.Warn("gdocai: transient error, retrying", "attempt", attempt, "delay", delay, "error", err)
		if err := gax.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}
