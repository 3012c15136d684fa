package pipeline

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gardar/gridocr/pkg/export"
	"github.com/gardar/gridocr/pkg/hocr"
	"github.com/gardar/gridocr/pkg/ocr"
	"github.com/gardar/gridocr/pkg/pdfocr"
	"github.com/gardar/gridocr/pkg/raster"
)

// ErrorKind groups failures by what the user can do about them.
type ErrorKind int

const (
	KindNone        ErrorKind = iota
	KindInput                 // Fix the input file or the page range
	KindDependency            // Install or configure an external tool
	KindRecognition           // The engine failed on the content
	KindTransient             // Retry later
	KindCanceled
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInput:
		return "input"
	case KindDependency:
		return "dependency"
	case KindRecognition:
		return "recognition"
	case KindTransient:
		return "transient"
	case KindCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// Classify maps err to its ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, raster.ErrInputNotFound),
		errors.Is(err, raster.ErrUnsupportedFormat),
		errors.Is(err, raster.ErrUnreadableInput),
		errors.Is(err, raster.ErrInvalidPageRange),
		errors.Is(err, export.ErrUnknownFormat),
		errors.Is(err, pdfocr.ErrAlreadyOCRed):
		return KindInput
	case errors.Is(err, raster.ErrRendererMissing),
		errors.Is(err, ocr.ErrEngineUnavailable):
		return KindDependency
	case errors.Is(err, ocr.ErrRecognitionFailed),
		errors.Is(err, hocr.ErrNoPages):
		return KindRecognition
	}

	switch status.Code(err) {
	case codes.ResourceExhausted, codes.Unavailable:
		return KindTransient
	}
	return KindInternal
}
