package snapshot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ClassifyContentType maps a raw Content-Type header value to a content
// class by substring match, case-insensitively. The checks run in pdf, word,
// html order; anything else is unsupported.
func ClassifyContentType(contentType string) ContentClass {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return ClassPDFDocument
	case strings.Contains(ct, "word"):
		return ClassWordDocument
	case strings.Contains(ct, "html"):
		return ClassWebPage
	default:
		return ClassUnsupported
	}
}

// ExtensionFor picks the document file extension for a content class.
func ExtensionFor(class ContentClass) string {
	switch class {
	case ClassPDFDocument:
		return ExtPDF
	case ClassWordDocument:
		return ExtWord
	default:
		return ExtOpaque
	}
}

// Classifier resolves a URL to a content class via a metadata-only probe.
type Classifier struct {
	prober Prober
	logger *zap.Logger
}

// NewClassifier builds a Classifier on top of a Prober.
func NewClassifier(prober Prober, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{prober: prober, logger: logger}
}

// Classify probes the URL and returns its class together with the probed
// content type. A probe failure is terminal for the URL this run: the
// network error and a genuinely unsupported resource are indistinguishable
// at this layer, so both surface as a failed classification.
func (c *Classifier) Classify(ctx context.Context, url string) (ContentClass, string, error) {
	contentType, err := c.prober.Probe(ctx, url)
	if err != nil {
		c.logger.Debug("content type probe failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return ClassUnsupported, "", fmt.Errorf("%w: %w", ErrProbe, err)
	}
	class := ClassifyContentType(contentType)
	c.logger.Debug("classified url",
		zap.String("url", url),
		zap.String("content_type", contentType),
		zap.String("class", string(class)),
	)
	return class, contentType, nil
}
