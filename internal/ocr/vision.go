package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionRecognizer recognizes page images with Google Cloud Vision
// DOCUMENT_TEXT_DETECTION, which keeps the reading order of table rows.
type VisionRecognizer struct {
	client   *vision.ImageAnnotatorClient
	annotate func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)
	logger   *slog.Logger
}

// NewVisionRecognizer builds a client from GOOGLE_CREDENTIALS (inline JSON),
// else credentialsFile, else GOOGLE_APPLICATION_CREDENTIALS, else the
// default credentials chain.
func NewVisionRecognizer(ctx context.Context, credentialsFile string, logger *slog.Logger) (*VisionRecognizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var opts []option.ClientOption
	switch {
	case os.Getenv("GOOGLE_CREDENTIALS") != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(os.Getenv("GOOGLE_CREDENTIALS"))))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		opts = append(opts, option.WithCredentialsFile(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}
	r := &VisionRecognizer{client: client, logger: logger}
	r.annotate = func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
		return client.BatchAnnotateImages(ctx, req)
	}
	return r, nil
}

func (r *VisionRecognizer) Name() string { return "vision" }

// Recognize returns the full text annotation of image.
func (r *VisionRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	start := time.Now()
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}
	resp, err := r.annotate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision annotate: %w", err)
	}
	if len(resp.GetResponses()) == 0 {
		return "", fmt.Errorf("vision annotate: empty response")
	}
	page := resp.GetResponses()[0]
	if e := page.GetError(); e != nil && e.GetMessage() != "" {
		return "", fmt.Errorf("vision annotate: %s", e.GetMessage())
	}
	txt := Normalize(page.GetFullTextAnnotation().GetText())
	r.logger.Debug("ocr.vision.ok", "chars", len(txt), "elapsed_ms", time.Since(start).Milliseconds())
	return txt, nil
}

// Close releases the underlying gRPC connection.
func (r *VisionRecognizer) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
