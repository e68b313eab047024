package driven

import (
	"context"
	"time"

	"github.com/vecsync/vecsync/internal/core/domain"
)

// SourceAdapter yields documents from one configured origin
// (filesystem, API, database). Implementations must be restartable:
// calling List again re-enumerates the source without side effects.
type SourceAdapter interface {
	// Name returns the adapter type identifier.
	Name() string

	// List streams documents from the source. When since is non-nil the
	// adapter may apply a server-side delta filter and yield only
	// documents changed at or after that instant. The document channel
	// is closed when enumeration completes; a value on the error channel
	// means enumeration failed and the stream is incomplete.
	List(ctx context.Context, since *time.Time) (<-chan domain.Document, <-chan error)
}
