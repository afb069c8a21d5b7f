package snapshot

import "errors"

// Sentinel errors forming the per-URL failure taxonomy. Workers wrap these
// with fmt.Errorf("%w: ...") so callers can match with errors.Is while the
// ledger keeps the full error text.
var (
	ErrProbe                  = errors.New("content type probe failed")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrNavigationTimeout      = errors.New("navigation timeout")
	ErrNavigation             = errors.New("navigation failed")
	ErrDownload               = errors.New("download failed")
	ErrExtraction             = errors.New("extraction failed")
)

// KindOf maps an error to its ledger taxonomy bucket. Unclassified errors
// fall through to the generic KindError.
func KindOf(err error) FailureKind {
	switch {
	case errors.Is(err, ErrNavigationTimeout):
		return KindNavigationTimeout
	case errors.Is(err, ErrNavigation):
		return KindNavigationError
	case errors.Is(err, ErrUnsupportedContentType):
		return KindUnsupportedContentType
	case errors.Is(err, ErrProbe):
		return KindProbeError
	case errors.Is(err, ErrDownload):
		return KindDownloadError
	case errors.Is(err, ErrExtraction):
		return KindExtractionError
	default:
		return KindError
	}
}
