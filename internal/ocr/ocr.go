package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"glimpse/internal/services"
)

// Recognizer extracts text from an image file.
type Recognizer interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
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

// Client shells out to tesseract for text recognition.
type Client struct {
	binary      string
	languageArg string
	timeout     time.Duration
	exec        Executor
}

// New constructs a recognition client. languageArg is the tesseract -l value,
// e.g. "eng" or "eng+deu".
func New(binary, languageArg string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ocr binary required")
	}
	languageArg = strings.TrimSpace(languageArg)
	if languageArg == "" {
		languageArg = "eng"
	}
	client := &Client{
		binary:      binary,
		languageArg: languageArg,
		timeout:     time.Duration(timeoutSeconds) * time.Second,
		exec:        commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Recognize runs the OCR tool against imagePath and returns normalized text.
// An image with no recognizable text yields an empty string, not an error.
func (c *Client) Recognize(ctx context.Context, imagePath string) (string, error) {
	if strings.TrimSpace(imagePath) == "" {
		return "", services.Wrap(services.ErrRecognitionUnavailable, "ocr", "run", "image path required", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{imagePath, "stdout", "-l", c.languageArg}
	output, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		return "", services.Wrap(services.ErrRecognitionUnavailable, "ocr", "run", c.binary, err)
	}
	return Normalize(output), nil
}

// Normalize applies NFC normalization and collapses runs of whitespace so
// recognized text compares stably across runs.
func Normalize(text string) string {
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(text), " ")
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		trimmed := strings.TrimSpace(stderr.String())
		if trimmed != "" {
			return "", fmt.Errorf("%w: %s", err, trimmed)
		}
		return "", err
	}
	return stdout.String(), nil
}
