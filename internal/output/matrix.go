// Package output provides tab-delimited writers for the filter pipeline.
package output

import (
	"bufio"
	"io"

	"github.com/htseq-tools/countfilter/internal/matrix"
)

// MatrixWriter writes the primary output: the header followed by passing
// gene rows, each emitted verbatim.
type MatrixWriter struct {
	w *bufio.Writer
}

// NewMatrixWriter creates a writer for the primary output stream.
func NewMatrixWriter(w io.Writer) *MatrixWriter {
	return &MatrixWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line unchanged.
func (mw *MatrixWriter) WriteHeader(header string) error {
	_, err := mw.w.WriteString(header + "\n")
	return err
}

// WriteRow writes a passing gene row using its original line text, so the
// input's numeric formatting is preserved.
func (mw *MatrixWriter) WriteRow(row *matrix.Row) error {
	_, err := mw.w.WriteString(row.Text + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (mw *MatrixWriter) Flush() error {
	return mw.w.Flush()
}
