package cases

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/ragcheck/internal/storage"
	"github.com/hyperjump/ragcheck/internal/verify"
)

// Outcome is the result of verifying one case. RecordID is set when the verification
// was stored in history.
type Outcome struct {
	Case     *Case
	Result   verify.Result
	RecordID string
	Err      error
}

// Passed reports whether the case verified without error or issues.
func (o Outcome) Passed() bool {
	return o.Err == nil && len(o.Result.Issues) == 0
}

// Runner verifies cases and optionally records them in history.
type Runner struct {
	verifier *verify.Verifier
	store    storage.Store
	source   string
	logger   *zap.Logger
}

// NewRunner creates a Runner. store may be nil to skip history; source labels stored
// records (storage.SourceCLI, storage.SourceWatch).
func NewRunner(verifier *verify.Verifier, store storage.Store, source string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{verifier: verifier, store: store, source: source, logger: logger}
}

// Run verifies one case. A history write failure is logged and does not fail the case.
func (r *Runner) Run(ctx context.Context, c *Case) Outcome {
	out := Outcome{Case: c}
	out.Result, out.Err = r.verifier.Verify(ctx, c.Response, c.Context())
	if out.Err != nil {
		r.logger.Warn("case verification failed", zap.String("case", c.Name), zap.Error(out.Err))
		return out
	}
	r.logger.Debug("case verified",
		zap.String("case", c.Name),
		zap.String("id", c.ID),
		zap.Int("issues", len(out.Result.Issues)),
	)

	if r.store != nil {
		rec := &storage.Record{
			CaseName: c.Name,
			Source:   r.source,
			Response: c.Response,
			Context:  c.Context(),
			Result:   out.Result,
		}
		if err := r.store.SaveRecord(ctx, rec); err != nil {
			r.logger.Warn("failed to record verification", zap.String("case", c.Name), zap.Error(err))
		} else {
			out.RecordID = rec.ID
		}
	}
	return out
}

// RunAll verifies cases in order. Cases reached after ctx is canceled carry its error.
func (r *Runner) RunAll(ctx context.Context, cases []*Case) []Outcome {
	outcomes := make([]Outcome, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, Outcome{Case: c, Err: err})
			continue
		}
		outcomes = append(outcomes, r.Run(ctx, c))
	}
	return outcomes
}
