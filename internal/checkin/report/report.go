// Package report renders weekly attendance totals and writes them to a
// durable sink: a local directory or an S3 bucket.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/checkin/internal/checkin/domain"
)

// Header is the first line of every rendered report.
var Header = []string{"identity", "weekly_total(HH:MM:SS)"}

// Sink stores a rendered report under name.
type Sink interface {
	Write(ctx context.Context, name string, content []byte) error
}

// FileName is the artifact name for the report covering [from, to].
func FileName(from, to string) string {
	return fmt.Sprintf("weekly_checkin_%s_to_%s.txt", from, to)
}

// Render writes totals as comma separated lines below Header.
func Render(totals []domain.WeeklyTotal) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, err
	}
	for _, total := range totals {
		if err := w.Write([]string{total.Identity, total.Total}); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileSink writes reports into a directory, creating it when missing.
type FileSink struct {
	Dir string
}

func (s FileSink) Write(_ context.Context, name string, content []byte) error {
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("report: invalid name %q", name)
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
