package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/htseq-tools/countfilter/internal/matrix"
	"github.com/htseq-tools/countfilter/internal/summary"
)

// MetacountWriter writes diverted metacount rows, marker stripped, to the
// secondary output. The file starts with a "feature" header over the sample
// names and may end with per-sample summary rows.
type MetacountWriter struct {
	w       *bufio.Writer
	samples []string
}

// NewMetacountWriter creates a writer for the metacount output stream.
func NewMetacountWriter(w io.Writer, samples []string) *MetacountWriter {
	return &MetacountWriter{
		w:       bufio.NewWriter(w),
		samples: samples,
	}
}

// WriteHeader writes the feature header line.
func (mw *MetacountWriter) WriteHeader() error {
	_, err := mw.w.WriteString("feature\t" + strings.Join(mw.samples, "\t") + "\n")
	return err
}

// WriteRow writes one metacount row with the marker stripped from its
// identifier. The remainder of the line is emitted verbatim.
func (mw *MetacountWriter) WriteRow(row *matrix.Row) error {
	text := row.Text
	if row.Metacount {
		text = strings.TrimPrefix(text, matrix.MetacountMarker)
	}
	_, err := mw.w.WriteString(text + "\n")
	return err
}

// WriteSummary appends the per-sample aggregate rows.
func (mw *MetacountWriter) WriteSummary(set *summary.SampleSet) error {
	for _, row := range set.Summary() {
		line := row.Name + "\t" + strings.Join(row.Values, "\t")
		if _, err := mw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (mw *MetacountWriter) Flush() error {
	return mw.w.Flush()
}
