package pipeline

import (
	"context"

	"github.com/Buffnet/Zoho-Books/internal/models"
)

// PageDriver is the capability the pipeline needs from the page/session
// layer. The pipeline does not know how the view is rendered, only that
// every call is asynchronous, can time out, and can fail.
type PageDriver interface {
	// WaitRowsVisible blocks until the row container is visible.
	WaitRowsVisible(ctx context.Context) error
	// Rows returns the snapshots of the currently rendered rows.
	Rows(ctx context.Context) ([]models.RowSnapshot, error)
	// NextVisible reports whether a "next page" control is rendered.
	NextVisible(ctx context.Context) (bool, error)
	// NextEnabled reports whether the "next page" control is clickable.
	NextEnabled(ctx context.Context) (bool, error)
	// ClickNext activates the "next page" control.
	ClickNext(ctx context.Context) error
	// WaitRowCountChange blocks until the rendered row count differs
	// from previous. This is the content barrier that keeps page
	// advancement from racing the re-render.
	WaitRowCountChange(ctx context.Context, previous int) error

	// PageHTML and Screenshot feed diagnostic capture only.
	PageHTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}
