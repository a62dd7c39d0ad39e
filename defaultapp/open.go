package defaultapp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"github.com/openpdfstudio/pdfhelper/elevate"
)

// ErrUnsupportedURL is returned for URLs that are not web or mail links.
var ErrUnsupportedURL = errors.New("unsupported url")

var openableSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"mailto": true,
}

// OpenURL hands raw to the user's default handler. Only http, https and
// mailto links are opened; file and custom schemes are refused.
func (c *Checker) OpenURL(ctx context.Context, raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if !openableSchemes[scheme] {
		return fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
	if scheme != "mailto" && u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrUnsupportedURL)
	}

	name, arg := c.opener(u.String())
	run := c.Exec
	if run == nil {
		run = elevate.DefaultCmdExecutor
	}
	if out, err := run(ctx, name, arg...); err != nil {
		return fmt.Errorf("failed to open %s: %w (%s)", u.Redacted(), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// opener picks the platform launcher. rundll32 takes the URL as one
// argument, where cmd's start would split it on '&'.
func (c *Checker) opener(link string) (string, []string) {
	goos := c.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", link}
	case "darwin":
		return "open", []string{link}
	default:
		return "xdg-open", []string{link}
	}
}
