package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"glimpse/internal/services"
)

// Capturer writes a raster image of the current screen to outputPath.
type Capturer interface {
	Capture(ctx context.Context, outputPath string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client shells out to an OS screenshot tool.
type Client struct {
	binary    string
	extraArgs []string
	timeout   time.Duration
	exec      Executor
}

// New constructs a screenshot client around the given binary.
func New(binary string, extraArgs []string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("capture binary required")
	}
	client := &Client{
		binary:    binary,
		extraArgs: append([]string{}, extraArgs...),
		timeout:   time.Duration(timeoutSeconds) * time.Second,
		exec:      commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Capture invokes the screenshot tool and verifies the output file exists.
func (c *Client) Capture(ctx context.Context, outputPath string) error {
	if strings.TrimSpace(outputPath) == "" {
		return services.Wrap(services.ErrCaptureUnavailable, "capture", "run", "output path required", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.exec.Run(runCtx, c.binary, c.buildArgs(outputPath)); err != nil {
		return services.Wrap(services.ErrCaptureUnavailable, "capture", "run", c.binary, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return services.Wrap(services.ErrCaptureUnavailable, "capture", "verify", "no image produced", err)
	}
	if info.Size() == 0 {
		return services.Wrap(services.ErrCaptureUnavailable, "capture", "verify", "empty image produced", nil)
	}
	return nil
}

func (c *Client) buildArgs(outputPath string) []string {
	args := append([]string{}, c.extraArgs...)
	switch filepath.Base(c.binary) {
	case "screencapture":
		// -x suppresses the capture sound.
		args = append(args, "-x", outputPath)
	case "scrot":
		args = append(args, "--overwrite", outputPath)
	default:
		// grim, maim, and most other tools take the output path last.
		args = append(args, outputPath)
	}
	return args
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(output))
		if trimmed != "" {
			return fmt.Errorf("%w: %s", err, trimmed)
		}
		return err
	}
	return nil
}
