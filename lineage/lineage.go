// Package lineage records births and deaths as zstd-compressed JSON lines.
package lineage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Record types.
const (
	TypeBirth = "birth"
	TypeDeath = "death"
)

// Record is one lineage log line.
type Record struct {
	Type    string    `json:"type"`
	Tick    int       `json:"tick"`
	ID      uint64    `json:"id"`
	Kind    string    `json:"kind,omitempty"`
	Parents [2]uint64 `json:"parents"`
	Genome  string    `json:"genome,omitempty"`
	Age     int       `json:"age,omitempty"`
	Health  float64   `json:"health,omitempty"`
}

// Writer appends JSON lines to a zstd stream.
type Writer struct {
	mu  sync.Mutex
	c   io.Closer
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Create opens path for writing, creating parent directories.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	w, err := NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.c = f
	return w, nil
}

// NewWriter wraps dst. Closing the Writer does not close dst.
func NewWriter(dst io.Writer) (*Writer, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	return &Writer{enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Write appends one record.
func (w *Writer) Write(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return fmt.Errorf("lineage: write after close")
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

// Flush pushes buffered records into a complete zstd block.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.enc.Flush()
}

// Close flushes and finishes the stream.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return nil
	}
	err := w.w.Flush()
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	w.w, w.enc, w.c = nil, nil, nil
	return err
}

// Read decodes every record in a lineage stream.
func Read(r io.Reader) ([]Record, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	defer dec.Close()

	var out []Record
	jd := json.NewDecoder(dec)
	for {
		var rec Record
		if err := jd.Decode(&rec); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, fmt.Errorf("lineage: record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}
