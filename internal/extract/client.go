// Package extract wraps the you-get command line tool for resolving and
// downloading media from source URLs.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// MediaDescriptor is one downloadable unit resolved from a source link.
// A single link may expand into several descriptors when the source is a
// multi-part collection.
type MediaDescriptor struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Site  string `json:"site"`
}

// Client defines extraction tool behaviour.
type Client interface {
	FetchInfos(ctx context.Context, link, cookiePath string) ([]MediaDescriptor, error)
	Download(ctx context.Context, url, cookiePath, outputDir, outputName string) error
	Version(ctx context.Context) (string, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithOutput redirects streamed subprocess output, defaulting to the
// process's own stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *CLI) {
		if stdout != nil {
			c.stdout = stdout
		}
		if stderr != nil {
			c.stderr = stderr
		}
	}
}

// CLI wraps the you-get command-line extractor.
type CLI struct {
	binary string
	stdout io.Writer
	stderr io.Writer
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "you-get", stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

func cookieArgs(cookiePath string) []string {
	if cookiePath == "" {
		return nil
	}
	if abs, err := filepath.Abs(cookiePath); err == nil {
		cookiePath = abs
	}
	return []string{"-c", cookiePath}
}

// FetchInfos resolves a link into media descriptors. The first attempt
// expands collections; when that fails the call is retried without
// expansion because some extractors reject the playlist flag for
// single-item pages.
func (c *CLI) FetchInfos(ctx context.Context, link, cookiePath string) ([]MediaDescriptor, error) {
	if link == "" {
		return nil, errors.New("link required")
	}

	descriptors, firstErr := c.fetchInfos(ctx, link, cookiePath, true)
	if firstErr == nil {
		return descriptors, nil
	}
	if ctx.Err() != nil {
		return nil, firstErr
	}
	descriptors, retryErr := c.fetchInfos(ctx, link, cookiePath, false)
	if retryErr != nil {
		return nil, fmt.Errorf("resolve %s: %w (playlist attempt: %v)", link, retryErr, firstErr)
	}
	return descriptors, nil
}

func (c *CLI) fetchInfos(ctx context.Context, link, cookiePath string, playlist bool) ([]MediaDescriptor, error) {
	args := []string{link}
	args = append(args, cookieArgs(cookiePath)...)
	args = append(args, "--json")
	if playlist {
		args = append(args, "--playlist")
	}

	cmd := commandContext(ctx, c.binary, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = c.stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w", c.binary, err)
	}
	descriptors, err := ParseConcatenatedJSON(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("no media descriptors in output for %s", link)
	}
	return descriptors, nil
}

// ParseConcatenatedJSON decodes a stream of JSON objects printed
// back-to-back without an enclosing array, which is how the extractor
// reports multi-part collections.
func ParseConcatenatedJSON(data []byte) ([]MediaDescriptor, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	var descriptors []MediaDescriptor
	for {
		var descriptor MediaDescriptor
		if err := decoder.Decode(&descriptor); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse extractor output: %w", err)
		}
		if descriptor.URL == "" {
			continue
		}
		descriptors = append(descriptors, descriptor)
	}
	return descriptors, nil
}

// Download fetches one media unit into outputDir under outputName. The
// tool's own progress output is streamed through for observability; the
// exit status alone decides success.
func (c *CLI) Download(ctx context.Context, url, cookiePath, outputDir, outputName string) error {
	if url == "" {
		return errors.New("url required")
	}
	if outputDir == "" {
		return errors.New("output directory required")
	}

	args := []string{url}
	args = append(args, cookieArgs(cookiePath)...)
	args = append(args, "-o", outputDir)
	if outputName != "" {
		args = append(args, "-O", outputName)
	}

	cmd := commandContext(ctx, c.binary, args...)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	return nil
}

// Version reports the tool version, used as the startup availability
// probe.
func (c *CLI) Version(ctx context.Context) (string, error) {
	cmd := commandContext(ctx, c.binary, "-V")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("probe %s: %w", c.binary, err)
	}
	return strings.TrimSpace(out.String()), nil
}

var _ Client = (*CLI)(nil)
