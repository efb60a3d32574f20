package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htseq-tools/countfilter/internal/matrix"
	"github.com/htseq-tools/countfilter/internal/summary"
)

func parseAll(t *testing.T, input string) (*matrix.Parser, []*matrix.Row) {
	t.Helper()

	parser, err := matrix.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	var rows []*matrix.Row
	for {
		row, err := parser.Next()
		require.NoError(t, err)
		if row == nil {
			break
		}
		rows = append(rows, row)
	}
	return parser, rows
}

func TestMatrixWriter_PreservesInput(t *testing.T) {
	input := "gene\ts1\ts2\ng1\t10\t0\ng2\t1.50\t2e3\n"
	parser, rows := parseAll(t, input)

	var buf bytes.Buffer
	w := NewMatrixWriter(&buf)

	require.NoError(t, w.WriteHeader(parser.Header()))
	for _, row := range rows {
		require.NoError(t, w.WriteRow(row))
	}
	require.NoError(t, w.Flush())

	// Original numeric formatting survives untouched
	assert.Equal(t, input, buf.String())
}

func TestMetacountWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	w := NewMetacountWriter(&buf, []string{"s1", "s2"})

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	assert.Equal(t, "feature\ts1\ts2\n", buf.String())
}

func TestMetacountWriter_StripsMarker(t *testing.T) {
	_, rows := parseAll(t, "gene\ts1\ts2\n__no_feature\t100\t200\n")
	require.Len(t, rows, 1)

	var buf bytes.Buffer
	w := NewMetacountWriter(&buf, []string{"s1", "s2"})

	require.NoError(t, w.WriteRow(rows[0]))
	require.NoError(t, w.Flush())

	assert.Equal(t, "no_feature\t100\t200\n", buf.String())
}

func TestMetacountWriter_Summary(t *testing.T) {
	set := summary.New([]string{"s1", "s2"})
	set.Observe([]float64{10, 20}, 1)
	set.ObservePassed([]float64{10, 20}, 1)

	var buf bytes.Buffer
	w := NewMetacountWriter(&buf, []string{"s1", "s2"})

	require.NoError(t, w.WriteSummary(set))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "total_count\t10\t20", lines[0])
	assert.Equal(t, "passed_count\t10\t20", lines[1])
	assert.Equal(t, "total_expressed\t1\t1", lines[2])
	assert.Equal(t, "passed_expressed\t1\t1", lines[3])
}
