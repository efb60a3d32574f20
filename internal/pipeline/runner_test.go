package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htseq-tools/countfilter/internal/filter"
	"github.com/htseq-tools/countfilter/internal/matrix"
	"github.com/htseq-tools/countfilter/internal/output"
)

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

// runFilter runs the pipeline over input and returns the primary output,
// the metacount output (empty when withMeta is false), and the result.
func runFilter(t *testing.T, input string, cfg filter.Config, withMeta, withSummary bool) (string, string, *Result) {
	t.Helper()

	parser, err := matrix.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	var primaryBuf, metaBuf bytes.Buffer
	primary := output.NewMatrixWriter(&primaryBuf)

	var meta *output.MetacountWriter
	if withMeta {
		meta = output.NewMetacountWriter(&metaBuf, parser.Samples())
	}

	runner := New(cfg)
	runner.SetSummary(withSummary)

	res, err := runner.Run(parser, primary, meta)
	require.NoError(t, err)

	return primaryBuf.String(), metaBuf.String(), res
}

func TestRun_NoFiltersRoundTrip(t *testing.T) {
	input := "gene\ts1\ts2\ng1\t10\t0\ng2\t0.50\t2\ng3\t0\t0\n"

	primary, _, res := runFilter(t, input, filter.Config{}, false, false)

	assert.Equal(t, input, primary)
	assert.Equal(t, 3, res.TotalGenes)
	assert.Equal(t, 3, res.PassedGenes)
}

func TestRun_MinCount(t *testing.T) {
	input := "gene\ts1\ts2\ts3\ts4\ngene1\t10\t0\t0\t20\nlow\t1\t1\t1\t1\n"

	primary, _, res := runFilter(t, input, filter.Config{MinCount: float64Ptr(5)}, false, false)

	assert.Contains(t, primary, "gene1\t10\t0\t0\t20\n")
	assert.NotContains(t, primary, "low")
	assert.Equal(t, 1, res.PassedGenes)
	assert.Equal(t, 2, res.TotalGenes)
}

func TestRun_MaxZeroCount(t *testing.T) {
	// gene1 has two zero counts and fails with -z 1
	input := "gene\ts1\ts2\ts3\ts4\ngene1\t10\t0\t0\t20\nok\t1\t2\t3\t4\n"

	primary, _, _ := runFilter(t, input, filter.Config{MaxZeroCount: intPtr(1)}, false, false)

	assert.NotContains(t, primary, "gene1")
	assert.Contains(t, primary, "ok\t1\t2\t3\t4\n")
}

func TestRun_FilterIdentical(t *testing.T) {
	input := "gene\ts1\ts2\ts3\ts4\ngene2\t5\t5\t5\t5\nvaried\t5\t5\t5\t6\n"

	primary, _, _ := runFilter(t, input, filter.Config{FilterIdentical: true}, false, false)

	assert.NotContains(t, primary, "gene2")
	assert.Contains(t, primary, "varied\t5\t5\t5\t6\n")
}

func TestRun_MinExpressed(t *testing.T) {
	input := "gene\ts1\ts2\ts3\ng1\t0\t1\t5\ng2\t0\t0\t5\n"

	primary, _, _ := runFilter(t, input, filter.Config{MinExpressed: intPtr(2)}, false, false)

	assert.Contains(t, primary, "g1\t0\t1\t5\n")
	assert.NotContains(t, primary, "g2")
}

func TestRun_ExpressionThreshold(t *testing.T) {
	input := "gene\ts1\ts2\ng1\t4\t4\n"

	parser, err := matrix.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	runner := New(filter.Config{MinExpressed: intPtr(1)})
	runner.SetExpressionThreshold(5)

	res, err := runner.Run(parser, output.NewMatrixWriter(&buf), nil)
	require.NoError(t, err)

	// No count reaches 5, so nothing is expressed
	assert.Equal(t, 0, res.PassedGenes)
	assert.NotContains(t, buf.String(), "g1")
}

func TestRun_MetacountsDivertedToFile(t *testing.T) {
	input := "gene\ts1\ts2\n__no_feature\t100\t200\ng1\t1\t2\n"

	primary, meta, res := runFilter(t, input, filter.Config{}, true, false)

	assert.NotContains(t, primary, "no_feature")
	assert.Equal(t, "feature\ts1\ts2\nno_feature\t100\t200\n", meta)
	assert.Equal(t, 1, res.Metacounts)
	assert.Equal(t, 1, res.TotalGenes)
}

func TestRun_MetacountsDroppedWithoutDestination(t *testing.T) {
	input := "gene\ts1\ts2\n__no_feature\t100\t200\ng1\t1\t2\n"

	primary, _, res := runFilter(t, input, filter.Config{}, false, false)

	assert.NotContains(t, primary, "no_feature")
	assert.Equal(t, "gene\ts1\ts2\ng1\t1\t2\n", primary)
	assert.Equal(t, 1, res.Metacounts)
}

func TestRun_MetacountsBypassFilters(t *testing.T) {
	// The metacount row would fail every filter if it were a gene row
	input := "gene\ts1\ts2\n__not_aligned\t0\t0\ng1\t10\t20\n"

	cfg := filter.Config{MinCount: float64Ptr(1), FilterIdentical: true}
	_, meta, _ := runFilter(t, input, cfg, true, false)

	assert.Contains(t, meta, "not_aligned\t0\t0\n")
}

func TestRun_SummaryRowsAppended(t *testing.T) {
	input := "gene\ts1\ts2\n__no_feature\t7\t8\ng1\t10\t0\ng2\t1\t1\n"

	_, meta, _ := runFilter(t, input, filter.Config{MinCount: float64Ptr(5)}, true, true)

	lines := strings.Split(strings.TrimRight(meta, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "feature\ts1\ts2", lines[0])
	assert.Equal(t, "no_feature\t7\t8", lines[1])
	// Summary rows follow the collected metacounts
	assert.Equal(t, "total_count\t11\t1", lines[2])
	assert.Equal(t, "passed_count\t10\t0", lines[3])
	assert.Equal(t, "total_expressed\t2\t1", lines[4])
	assert.Equal(t, "passed_expressed\t1\t0", lines[5])
}

func TestRun_NoSummaryWithoutFlag(t *testing.T) {
	input := "gene\ts1\n__no_feature\t1\ng1\t2\n"

	_, meta, _ := runFilter(t, input, filter.Config{}, true, false)

	assert.NotContains(t, meta, "total_count")
}

func TestRun_OutputOrderIsStable(t *testing.T) {
	input := "gene\ts1\na\t1\nb\t0\nc\t2\nd\t0\ne\t3\n"

	primary, _, _ := runFilter(t, input, filter.Config{MinCount: float64Ptr(1)}, false, false)

	assert.Equal(t, "gene\ts1\na\t1\nc\t2\ne\t3\n", primary)
}

func TestRun_ParseErrorAborts(t *testing.T) {
	input := "gene\ts1\ng1\t1\nbad\tx\n"

	parser, err := matrix.NewParserFromReader(strings.NewReader(input))
	require.NoError(t, err)

	var buf bytes.Buffer
	runner := New(filter.Config{})

	_, err = runner.Run(parser, output.NewMatrixWriter(&buf), nil)
	require.Error(t, err)

	var perr *matrix.ParseError
	assert.True(t, errors.As(err, &perr))
}
