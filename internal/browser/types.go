// Package browser is the automation handle the extraction pipeline drives.
// A single Page is one stateful browser tab; callers must not use it from
// more than one goroutine.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/suno-archive/internal/util"
)

// Page is the current document of one browser tab.
type Page interface {
	// Navigate loads url and waits for the body to be ready.
	Navigate(ctx context.Context, url string) error
	// Location returns the URL currently shown.
	Location(ctx context.Context) (string, error)
	// Evaluate runs a script and decodes its JSON result into out (may be nil).
	Evaluate(ctx context.Context, script string, out any) error
	// HTML returns the full serialized document.
	HTML(ctx context.Context) (string, error)
	// Query returns every element matching a CSS selector, possibly none.
	Query(ctx context.Context, selector string) ([]Element, error)
}

// Element is a node returned by Page.Query.
type Element interface {
	Text(ctx context.Context) (string, error)
	Attribute(name string) (string, bool)
	Visible(ctx context.Context) (bool, error)
	Enabled(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
}

// Config holds browser attachment settings
type Config struct {
	DebugURL      string        `yaml:"debug_url" json:"debug_url"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	ActionTimeout time.Duration `yaml:"action_timeout" json:"action_timeout"`
	Retry         *util.RetryConfig
}

// DefaultConfig returns settings for a local Chrome started with
// --remote-debugging-port=9222.
func DefaultConfig() *Config {
	return &Config{
		DebugURL:      "http://127.0.0.1:9222",
		Timeout:       30 * time.Second,
		ActionTimeout: 5 * time.Second,
		Retry:         util.DefaultRetryConfig(),
	}
}

// ConnectError reports that no debugging session answered at DebugURL.
type ConnectError struct {
	DebugURL string
	Cause    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("cannot attach to browser at %s: %v\n"+
		"Start Chrome with remote debugging enabled and log in to your library first:\n"+
		"  google-chrome --remote-debugging-port=9222", e.DebugURL, e.Cause)
}

func (e *ConnectError) Unwrap() error { return e.Cause }

// Is lets errors.Is match util.ErrBrowserUnavailable.
func (e *ConnectError) Is(target error) bool { return target == util.ErrBrowserUnavailable }
