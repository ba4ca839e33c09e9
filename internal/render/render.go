// Package render turns DOT files into images with the Graphviz dot binary.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the Graphviz executable looked up on PATH.
const DefaultBinary = "dot"

// ErrBinaryNotFound is returned when the Graphviz binary is not on PATH.
var ErrBinaryNotFound = errors.New("graphviz dot binary not found on PATH")

// Runner invokes the Graphviz binary.
type Runner struct {
	binary string
}

// NewRunner creates a runner for binary. An empty binary means DefaultBinary.
func NewRunner(binary string) *Runner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Runner{binary: binary}
}

// Available reports whether the binary can be found.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.binary)
	return err == nil
}

// OutputPath returns dotPath with its extension replaced by format.
func OutputPath(dotPath, format string) string {
	return strings.TrimSuffix(dotPath, filepath.Ext(dotPath)) + "." + format
}

// Render runs `dot -T<format> -o <outPath> <dotPath>`.
func (r *Runner) Render(ctx context.Context, dotPath, format, outPath string) error {
	if format == "" {
		return fmt.Errorf("no render format specified")
	}
	if _, err := os.Stat(dotPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("DOT file does not exist: %s", dotPath)
		}
		return fmt.Errorf("checking DOT file: %w", err)
	}
	if !r.Available() {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, r.binary)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, "-T"+format, "-o", outPath, dotPath)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("running %s: %w: %s", r.binary, err, msg)
		}
		return fmt.Errorf("running %s: %w", r.binary, err)
	}
	return nil
}
