// Package upload wraps the BaiduPCS-Go command line tool for moving
// downloaded files to remote storage.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Client defines upload tool behaviour.
type Client interface {
	EnsureLogin(ctx context.Context, bduss string) error
	Search(ctx context.Context, keyword, remoteDir string) (string, error)
	Upload(ctx context.Context, localPath, remoteDir string) error
	Remove(ctx context.Context, remotePath string) error
	UniqUpload(ctx context.Context, localPath, remoteDir string) error
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

// CLI wraps the BaiduPCS-Go command-line client.
type CLI struct {
	binary string
	stdout io.Writer
	stderr io.Writer
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "BaiduPCS-Go", stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := commandContext(ctx, c.binary, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	return out.String(), err
}

// Who reports the currently logged-in account. An anonymous session
// reports uid 0.
func (c *CLI) Who(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "who")
	if err != nil {
		return "", fmt.Errorf("query account: %w", err)
	}
	return out, nil
}

// Login authenticates with a BDUSS credential.
func (c *CLI) Login(ctx context.Context, bduss string) error {
	if bduss == "" {
		return errors.New("bduss required")
	}
	if _, err := c.run(ctx, "login", "-bduss="+bduss); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// EnsureLogin logs in only when the current session is anonymous, so
// repeated startups do not re-authenticate needlessly.
func (c *CLI) EnsureLogin(ctx context.Context, bduss string) error {
	out, err := c.Who(ctx)
	if err != nil {
		return err
	}
	if !strings.Contains(out, "uid: 0") {
		return nil
	}
	return c.Login(ctx, bduss)
}

// Search queries the remote directory for a keyword and returns the
// tool's raw listing output.
func (c *CLI) Search(ctx context.Context, keyword, remoteDir string) (string, error) {
	if keyword == "" {
		return "", errors.New("keyword required")
	}
	out, err := c.run(ctx, "search", "-path="+remoteDir, keyword)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", keyword, err)
	}
	return out, nil
}

// Upload transfers a local file into the remote directory, streaming
// progress output through for observability.
func (c *CLI) Upload(ctx context.Context, localPath, remoteDir string) error {
	if localPath == "" {
		return errors.New("local path required")
	}
	if remoteDir == "" {
		return errors.New("remote directory required")
	}
	cmd := commandContext(ctx, c.binary, "upload", localPath, remoteDir)
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("upload %s: %w", localPath, err)
	}
	return nil
}

// Remove deletes a remote file or directory.
func (c *CLI) Remove(ctx context.Context, remotePath string) error {
	if remotePath == "" {
		return errors.New("remote path required")
	}
	if _, err := c.run(ctx, "rm", remotePath); err != nil {
		return fmt.Errorf("remove %s: %w", remotePath, err)
	}
	return nil
}

// searchHit reports whether the search listing shows the exact target
// filename, which means a prior run already uploaded it.
func searchHit(output, filename string) bool {
	return filename != "" && strings.Contains(output, filename)
}

// UniqUpload uploads a file only when the remote directory does not
// already hold one with the same name. A remote hit counts as success
// without a transfer, which keeps re-runs after partial failures cheap.
func (c *CLI) UniqUpload(ctx context.Context, localPath, remoteDir string) error {
	if localPath == "" {
		return errors.New("local path required")
	}
	filename := filepath.Base(localPath)
	out, err := c.Search(ctx, filename, remoteDir)
	if err == nil && searchHit(out, filename) {
		return nil
	}
	// Search failures fall through to the upload attempt; the remote
	// side rejects true duplicates.
	return c.Upload(ctx, localPath, remoteDir)
}

// RemotePath joins a remote directory and filename with forward slashes
// regardless of the local OS.
func RemotePath(remoteDir, filename string) string {
	return path.Join(remoteDir, filename)
}

// Version reports the tool version, used as the startup availability
// probe.
func (c *CLI) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "-v")
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", c.binary, err)
	}
	return strings.TrimSpace(out), nil
}

var _ Client = (*CLI)(nil)
