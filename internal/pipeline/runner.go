// Package pipeline wires the parser, filter chain, and writers into the
// single-pass filter run.
package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/htseq-tools/countfilter/internal/filter"
	"github.com/htseq-tools/countfilter/internal/matrix"
	"github.com/htseq-tools/countfilter/internal/output"
	"github.com/htseq-tools/countfilter/internal/summary"
)

// DefaultExpressionThreshold is the count at or above which a sample is
// considered to express a gene.
const DefaultExpressionThreshold = 1

// Runner streams a counts matrix through the filter chain. Rows are
// processed in input order and passing rows are written in that same order.
type Runner struct {
	cfg        filter.Config
	expression float64
	summary    bool
	logger     *zap.Logger
}

// Result holds the run-wide totals of a completed filter run.
type Result struct {
	TotalGenes  int
	PassedGenes int
	Metacounts  int
	Samples     *summary.SampleSet
}

// New creates a Runner for the given filter configuration.
func New(cfg filter.Config) *Runner {
	return &Runner{
		cfg:        cfg,
		expression: DefaultExpressionThreshold,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostic messages.
func (r *Runner) SetLogger(l *zap.Logger) {
	r.logger = l
}

// SetExpressionThreshold sets the minimum count for a sample to be
// considered expressed.
func (r *Runner) SetExpressionThreshold(x float64) {
	r.expression = x
}

// SetSummary configures whether per-sample aggregate rows are appended to
// the metacount output.
func (r *Runner) SetSummary(on bool) {
	r.summary = on
}

// Run filters every row of the matrix. Passing gene rows go to primary;
// metacount rows go to meta when it is non-nil and are dropped otherwise.
// Summary rows, when enabled, are appended to meta after the last
// metacount row.
func (r *Runner) Run(p *matrix.Parser, primary *output.MatrixWriter, meta *output.MetacountWriter) (*Result, error) {
	if err := primary.WriteHeader(p.Header()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if meta != nil {
		if err := meta.WriteHeader(); err != nil {
			return nil, fmt.Errorf("write metacount header: %w", err)
		}
	}

	res := &Result{Samples: summary.New(p.Samples())}

	for {
		row, err := p.Next()
		if err != nil {
			return nil, err
		}
		if row == nil {
			break
		}

		if row.Metacount {
			res.Metacounts++
			if meta == nil {
				r.logger.Debug("dropping metacount row",
					zap.String("feature", row.Feature()),
					zap.Int("line", row.Line))
				continue
			}
			if err := meta.WriteRow(row); err != nil {
				return nil, fmt.Errorf("write metacount row: %w", err)
			}
			continue
		}

		res.TotalGenes++
		stats := filter.Compute(row.Counts, r.expression)
		res.Samples.Observe(row.Counts, r.expression)

		pass, reason := r.cfg.Evaluate(stats)
		if !pass {
			r.logger.Debug("gene failed filtering",
				zap.String("gene", row.Name),
				zap.String("reason", string(reason)),
				zap.Float64("total", stats.Total),
				zap.Int("zero_count", stats.ZeroCount))
			continue
		}

		res.PassedGenes++
		res.Samples.ObservePassed(row.Counts, r.expression)
		if err := primary.WriteRow(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	if meta != nil && r.summary {
		if err := meta.WriteSummary(res.Samples); err != nil {
			return nil, fmt.Errorf("write summary rows: %w", err)
		}
	}

	if err := primary.Flush(); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}
	if meta != nil {
		if err := meta.Flush(); err != nil {
			return nil, fmt.Errorf("flush metacount output: %w", err)
		}
	}

	r.logger.Info("filter run complete",
		zap.Int("passed_genes", res.PassedGenes),
		zap.Int("total_genes", res.TotalGenes),
		zap.Int("metacounts", res.Metacounts))

	return res, nil
}
