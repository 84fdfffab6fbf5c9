package pipeline

import (
	"context"

	"github.com/joseph-ayodele/ipqc-tracker/internal/extract"
)

// Recognizer turns one page image into text. ocr.Extractor, ocr.ReadClient
// and ocr.VisionRecognizer implement it.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Rasterizer renders one 1-based page of a document to an image.
type Rasterizer interface {
	RasterizePage(ctx context.Context, doc []byte, page int) ([]byte, error)
}

// FieldExtractor is the model-backed extraction path. It never fails; an
// empty map means it produced nothing usable. llm.Adapter implements it.
type FieldExtractor interface {
	Extract(ctx context.Context, page int, text string) extract.FieldMap
}
