package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/ragcheck/internal/embedding"
	"github.com/hyperjump/ragcheck/internal/keyword"
	"github.com/hyperjump/ragcheck/internal/vector"
	"go.uber.org/zap"
)

// Relevance modes.
const (
	// RelevanceDocuments scores the question against its nearest indexed document.
	RelevanceDocuments = "documents"
	// RelevanceResponse scores the response against the question.
	RelevanceResponse = "response"
)

// KeywordScorer rates the lexical overlap of a response with the question and documents.
type KeywordScorer interface {
	Score(response, question string, docs []string) float64
}

// Recorder observes finished verifications (metrics, history).
type Recorder interface {
	ObserveVerification(res Result, elapsed time.Duration, err error)
}

// Config holds verification settings.
type Config struct {
	Thresholds    Thresholds
	IndexType     string
	HNSW          vector.HNSWParams
	RelevanceMode string
}

// DefaultConfig returns 0.5 thresholds, an HNSW index with default parameters and
// document relevance.
func DefaultConfig() Config {
	return Config{
		Thresholds:    DefaultThresholds(),
		IndexType:     string(vector.IndexTypeHNSW),
		HNSW:          vector.DefaultHNSWParams(),
		RelevanceMode: RelevanceDocuments,
	}
}

// Verifier verifies answers. It holds only immutable configuration and the embedder,
// so it is safe for concurrent use when the embedder is.
type Verifier struct {
	embedder embedding.Embedder
	config   Config
	keywords KeywordScorer
	recorder Recorder
	logger   *zap.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithKeywordScorer replaces the default whitespace overlap scorer used for accuracy.
func WithKeywordScorer(s KeywordScorer) Option {
	return func(v *Verifier) {
		if s != nil {
			v.keywords = s
		}
	}
}

// WithRecorder registers a recorder called after every verification.
func WithRecorder(r Recorder) Option {
	return func(v *Verifier) {
		v.recorder = r
	}
}

// New creates a Verifier. Empty IndexType and RelevanceMode take their defaults.
func New(embedder embedding.Embedder, cfg Config, opts ...Option) (*Verifier, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if cfg.IndexType == "" {
		cfg.IndexType = string(vector.IndexTypeHNSW)
	}
	if !vector.ValidType(cfg.IndexType) {
		return nil, fmt.Errorf("unknown index type: %s", cfg.IndexType)
	}
	switch cfg.RelevanceMode {
	case "":
		cfg.RelevanceMode = RelevanceDocuments
	case RelevanceDocuments, RelevanceResponse:
	default:
		return nil, fmt.Errorf("unknown relevance mode: %s (supported: documents, response)", cfg.RelevanceMode)
	}

	v := &Verifier{
		embedder: embedder,
		config:   cfg,
		keywords: keyword.NewOverlapScorer(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if cfg.RelevanceMode != RelevanceDocuments {
		v.logger.Info("relevance scores the response against the question", zap.String("relevance_mode", cfg.RelevanceMode))
	}
	if cfg.IndexType == string(vector.IndexTypeFAISS) && cfg.HNSW.EfConstruction != 0 &&
		cfg.HNSW.EfConstruction != vector.DefaultEfConstruction {
		v.logger.Warn("faiss keeps its own ef_construction; hnsw.ef_construction is ignored",
			zap.Int("ef_construction", cfg.HNSW.EfConstruction),
			zap.Int("faiss_ef_construction", vector.DefaultEfConstruction),
		)
	}
	return v, nil
}

// Config returns the effective configuration.
func (v *Verifier) Config() Config {
	return v.config
}

// Verify scores response against vctx. It returns ErrInvalidContext for a missing
// question or document list and passes embedder errors through unchanged. No partial
// result is returned on error.
func (v *Verifier) Verify(ctx context.Context, response string, vctx Context) (res Result, err error) {
	start := time.Now()
	if v.recorder != nil {
		defer func() { v.recorder.ObserveVerification(res, time.Since(start), err) }()
	}
	if err := vctx.Validate(); err != nil {
		return Result{}, err
	}

	r, err := v.newRun(ctx, response, vctx)
	if err != nil {
		return Result{}, err
	}
	defer r.close()

	semantic, err := r.semanticSimilarity(ctx)
	if err != nil {
		return Result{}, err
	}
	accuracy := clamp01(0.5*v.keywords.Score(response, vctx.Question, vctx.RetrievedDocs) + 0.5*semantic)
	consistency, err := r.consistency(ctx)
	if err != nil {
		return Result{}, err
	}
	relevance, err := r.relevance(ctx)
	if err != nil {
		return Result{}, err
	}

	res = Result{
		Accuracy:           accuracy,
		Consistency:        consistency,
		Relevance:          relevance,
		SemanticSimilarity: semantic,
		Confidence:         Confidence(accuracy, consistency, relevance, semantic),
		Issues:             DetectIssues(accuracy, consistency, relevance, semantic, v.config.Thresholds),
	}
	v.logger.Debug("verification complete",
		zap.Int("documents", len(vctx.RetrievedDocs)),
		zap.Float64("accuracy", res.Accuracy),
		zap.Float64("consistency", res.Consistency),
		zap.Float64("relevance", res.Relevance),
		zap.Float64("semantic_similarity", res.SemanticSimilarity),
		zap.Float64("confidence", res.Confidence),
		zap.Int("issues", len(res.Issues)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// run is the state of one Verify call: the index over that call's documents and the
// embeddings computed so far. It is never shared between calls.
type run struct {
	v        *Verifier
	response string
	vctx     Context
	index    vector.Index
	embedded map[string][]float32
}

func (v *Verifier) newRun(ctx context.Context, response string, vctx Context) (*run, error) {
	docs := vctx.RetrievedDocs
	var vectors [][]float32
	if len(docs) > 0 {
		embs, err := v.embedder.EmbedBatch(ctx, docs)
		if err != nil {
			return nil, err
		}
		if len(embs) != len(docs) {
			return nil, fmt.Errorf("embedder returned %d embeddings for %d documents", len(embs), len(docs))
		}
		vectors = embs
	}
	index, err := vector.Build(v.config.IndexType, v.config.HNSW, vectors)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return &run{
		v:        v,
		response: response,
		vctx:     vctx,
		index:    index,
		embedded: make(map[string][]float32),
	}, nil
}

func (r *run) close() {
	_ = r.index.Close()
}

func (r *run) embed(ctx context.Context, text string) ([]float32, error) {
	if emb, ok := r.embedded[text]; ok {
		return emb, nil
	}
	emb, err := r.v.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	r.embedded[text] = emb
	return emb, nil
}

// nearest returns the similarities of the k documents closest to text.
func (r *run) nearest(ctx context.Context, text string, k int) ([]float64, error) {
	if r.index.Size() == 0 {
		return nil, nil
	}
	query, err := r.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	neighbors, err := r.index.Search(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	sims := make([]float64, len(neighbors))
	for i, n := range neighbors {
		sims[i] = Similarity(n.Distance)
	}
	return sims, nil
}

// consistency is the mean similarity of the response to all documents.
func (r *run) consistency(ctx context.Context) (float64, error) {
	sims, err := r.nearest(ctx, r.response, len(r.vctx.RetrievedDocs))
	if err != nil || len(sims) == 0 {
		return 0, err
	}
	var sum float64
	for _, s := range sims {
		sum += s
	}
	return clamp01(sum / float64(len(sims))), nil
}

func (r *run) relevance(ctx context.Context) (float64, error) {
	if r.v.config.RelevanceMode == RelevanceResponse {
		q, err := r.embed(ctx, r.vctx.Question)
		if err != nil {
			return 0, err
		}
		resp, err := r.embed(ctx, r.response)
		if err != nil {
			return 0, err
		}
		if len(q) != len(resp) {
			return 0, fmt.Errorf("relevance: %w", vector.ErrDimensionMismatch)
		}
		return Similarity(vector.L2Distance(q, resp)), nil
	}
	return r.top(ctx, r.vctx.Question)
}

// semanticSimilarity compares the expected response, or the response itself when no
// expected response is given, with its nearest document.
func (r *run) semanticSimilarity(ctx context.Context) (float64, error) {
	text := r.response
	if r.vctx.ExpectedResponse != nil {
		text = *r.vctx.ExpectedResponse
	}
	return r.top(ctx, text)
}

// top is the similarity of text to its nearest document, 0 without documents.
func (r *run) top(ctx context.Context, text string) (float64, error) {
	sims, err := r.nearest(ctx, text, 1)
	if err != nil || len(sims) == 0 {
		return 0, err
	}
	return clamp01(sims[0]), nil
}
