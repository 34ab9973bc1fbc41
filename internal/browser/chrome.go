package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/franz/suno-archive/internal/util"
)

// Chrome is a Page backed by a tab in an already running Chrome that was
// started with remote debugging. The tab shares the user's logged-in
// profile.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	config      *Config
}

// Connect attaches to the debugging endpoint and opens a tab.
// Transient connection errors are retried.
func Connect(ctx context.Context, config *Config) (*Chrome, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.ActionTimeout <= 0 {
		config.ActionTimeout = 5 * time.Second
	}

	c, err := util.RetryWithBackoff(ctx, config.Retry, func(ctx context.Context) (*Chrome, error) {
		return attach(ctx, config)
	}, "attach browser")
	if err != nil {
		return nil, &ConnectError{DebugURL: config.DebugURL, Cause: err}
	}

	util.DebugLog("Attached to browser at %s", config.DebugURL)
	return c, nil
}

func attach(ctx context.Context, config *Config) (*Chrome, error) {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), config.DebugURL)
	tabCtx, cancel := chromedp.NewContext(allocCtx)

	c := &Chrome{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel, config: config}

	// An empty Run forces the websocket connection and target creation.
	if err := c.run(ctx, config.Timeout); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Navigate loads url and waits for the body element
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.run(ctx, c.config.Timeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Location returns the current tab URL
func (c *Chrome) Location(ctx context.Context) (string, error) {
	var url string
	if err := c.run(ctx, c.config.ActionTimeout, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Evaluate runs JavaScript in the page
func (c *Chrome) Evaluate(ctx context.Context, script string, out any) error {
	var discard any
	if out == nil {
		out = &discard
	}
	if err := c.run(ctx, c.config.Timeout, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("script execution failed: %w", err)
	}
	return nil
}

// HTML returns the outer HTML of the document element
func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, c.config.Timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

// Query returns all nodes matching selector without waiting for any to appear
func (c *Chrome) Query(ctx context.Context, selector string) ([]Element, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, c.config.ActionTimeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("query %q failed: %w", selector, err)
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromeElement{chrome: c, node: n})
	}
	return elements, nil
}

// Close closes the tab and drops the debugging connection. The browser
// process itself keeps running.
func (c *Chrome) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	return nil
}

type chromeElement struct {
	chrome *Chrome
	node   *cdp.Node
}

func (e *chromeElement) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.chrome.run(ctx, e.chrome.config.ActionTimeout,
		chromedp.TextContent(e.ids(), &text, chromedp.ByNodeID))
	return text, err
}

func (e *chromeElement) Attribute(name string) (string, bool) {
	return e.node.Attribute(name)
}

// Visible reports whether the node has a rendered box.
func (e *chromeElement) Visible(ctx context.Context) (bool, error) {
	var hidden bool
	err := e.chrome.run(ctx, e.chrome.config.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx); err != nil {
			hidden = true
		}
		return nil
	}))
	if err != nil {
		return false, err
	}
	return !hidden, nil
}

func (e *chromeElement) Enabled(ctx context.Context) (bool, error) {
	if _, disabled := e.node.Attribute("disabled"); disabled {
		return false, nil
	}
	if v, _ := e.node.Attribute("aria-disabled"); v == "true" {
		return false, nil
	}
	return true, nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	err := e.chrome.run(ctx, e.chrome.config.ActionTimeout,
		chromedp.Click(e.ids(), chromedp.ByNodeID))
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("click timed out: %w", err)
	}
	return err
}
