// Package driver implements the page/session layer on a headless Chrome
// session. It knows how to load the invoice list view, observe the
// pagination controls and hand frozen row snapshots to the pipeline; it
// knows nothing about what the rows mean.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Buffnet/Zoho-Books/internal/models"

	"github.com/chromedp/chromedp"
)

// ErrWaitTimeout marks a wait that did not see its condition in time.
// Distinct from "found but wrong shape" failures so callers can tell a
// slow page from a changed one.
var ErrWaitTimeout = errors.New("wait timed out")

const (
	defaultWaitTimeout      = 10 * time.Second
	defaultFirstLoadTimeout = 30 * time.Second

	defaultContainerSelector = "#invoice-table"
	defaultRowSelector       = "#invoice-table tbody tr"
	defaultNextSelector      = "#next-page"

	// settleDelay bridges the pagination re-render animation after a
	// click. A fixed sleep is the known weak point of this layer; every
	// other suspension waits on an observable condition.
	settleDelay = 500 * time.Millisecond
)

type Options struct {
	BaseURL  string
	Headless bool

	WaitTimeout      time.Duration
	FirstLoadTimeout time.Duration

	ContainerSelector string
	RowSelector       string
	NextSelector      string
}

func (o *Options) withDefaults() {
	if o.WaitTimeout == 0 {
		o.WaitTimeout = defaultWaitTimeout
	}
	if o.FirstLoadTimeout == 0 {
		o.FirstLoadTimeout = defaultFirstLoadTimeout
	}
	if o.ContainerSelector == "" {
		o.ContainerSelector = defaultContainerSelector
	}
	if o.RowSelector == "" {
		o.RowSelector = defaultRowSelector
	}
	if o.NextSelector == "" {
		o.NextSelector = defaultNextSelector
	}
}

// Browser drives one Chrome session. Not safe for concurrent use; the
// pipeline is single-threaded by design.
type Browser struct {
	opts        Options
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
}

func New(ctx context.Context, opts Options) *Browser {
	opts.withDefaults()

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	return &Browser{
		opts:        opts,
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
	}
}

func (b *Browser) Close() {
	b.cancelCtx()
	b.cancelAlloc()
}

// Open navigates to the invoice list view. Login and menu navigation are
// out of scope: the URL is expected to land on the list directly.
func (b *Browser) Open(ctx context.Context) error {
	return b.run(ctx, b.opts.FirstLoadTimeout, chromedp.Navigate(b.opts.BaseURL))
}

func (b *Browser) WaitRowsVisible(ctx context.Context) error {
	return b.run(ctx, b.opts.FirstLoadTimeout,
		chromedp.WaitVisible(b.opts.ContainerSelector, chromedp.ByQuery),
	)
}

func (b *Browser) Rows(ctx context.Context) ([]models.RowSnapshot, error) {
	var html string
	err := b.run(ctx, b.opts.WaitTimeout,
		chromedp.OuterHTML(b.opts.ContainerSelector, &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("read row container: %w", err)
	}
	return ParseRows(html)
}

type nextControlState struct {
	Present bool `json:"present"`
	Visible bool `json:"visible"`
	Enabled bool `json:"enabled"`
}

func (b *Browser) nextState(ctx context.Context) (nextControlState, error) {
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return {present: false, visible: false, enabled: false};
		const style = window.getComputedStyle(el);
		const visible = el.offsetParent !== null && style.visibility !== "hidden";
		const enabled = !el.disabled && !el.classList.contains("disabled");
		return {present: true, visible, enabled};
	})()`, b.opts.NextSelector)

	var state nextControlState
	err := b.run(ctx, b.opts.WaitTimeout, chromedp.Evaluate(expr, &state))
	if err != nil {
		return nextControlState{}, fmt.Errorf("probe next control: %w", err)
	}
	return state, nil
}

func (b *Browser) NextVisible(ctx context.Context) (bool, error) {
	state, err := b.nextState(ctx)
	return state.Present && state.Visible, err
}

func (b *Browser) NextEnabled(ctx context.Context) (bool, error) {
	state, err := b.nextState(ctx)
	return state.Present && state.Enabled, err
}

func (b *Browser) ClickNext(ctx context.Context) error {
	err := b.run(ctx, b.opts.WaitTimeout,
		chromedp.Click(b.opts.NextSelector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("click next control: %w", err)
	}
	time.Sleep(settleDelay)
	return nil
}

func (b *Browser) WaitRowCountChange(ctx context.Context, previous int) error {
	expr := fmt.Sprintf(
		`document.querySelectorAll(%q).length !== %d`,
		b.opts.RowSelector, previous,
	)
	var changed bool
	return b.run(ctx, b.opts.WaitTimeout,
		chromedp.Poll(expr, &changed, chromedp.WithPollingInterval(100*time.Millisecond)),
	)
}

func (b *Browser) PageHTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, b.opts.WaitTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := b.run(ctx, b.opts.WaitTimeout, chromedp.FullScreenshot(&buf, 90))
	return buf, err
}

// run executes actions against the browser context under a bounded
// per-operation timeout. Deadline errors are wrapped in ErrWaitTimeout.
func (b *Browser) run(caller context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := caller.Err(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(b.ctx, timeout)
	defer cancel()

	err := chromedp.Run(ctx, actions...)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
	}
	return err
}
