package plagiarism

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/canon"
	"github.com/Ammarkarimi/plagarism-detector/internal/fingerprint"
	"github.com/Ammarkarimi/plagarism-detector/internal/grammar"
	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/Ammarkarimi/plagarism-detector/internal/normalize"
	"github.com/Ammarkarimi/plagarism-detector/internal/structural"
	"github.com/Ammarkarimi/plagarism-detector/internal/syntax"
	"github.com/Ammarkarimi/plagarism-detector/internal/verdict"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// Engine compares pairs of source files. It only holds immutable configuration and is safe
// for concurrent use.
type Engine struct {
	cfg          EngineConfig
	normalizer   *normalize.Normalizer
	fingerprints fingerprint.Engine
	parser       *syntax.Parser
	comparator   structural.Comparator
	thresholds   verdict.Thresholds
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	return &Engine{
		cfg:          cfg,
		normalizer:   normalize.New(normalize.Options{CanonicalizeIdentifiers: cfg.CanonicalizeIdentifiers}),
		fingerprints: fingerprint.New(cfg.KGram, cfg.Window),
		parser:       syntax.NewParser(cfg.MaxTreeNodes, cfg.MaxTreeDepth),
		comparator: structural.Comparator{
			Floor:       cfg.StructuralFloor,
			NearMatch:   cfg.NearMatch,
			TopN:        cfg.TEDTopN,
			TEDMaxNodes: cfg.TEDMaxNodes,
			TEDBudget:   cfg.TEDBudget,
			MaxNodes:    cfg.MaxTreeNodes,
		},
		thresholds: verdict.Thresholds{Hash: cfg.HashThreshold, AST: cfg.ASTThreshold},
	}, nil
}

func (e *Engine) Config() EngineConfig {
	return e.cfg
}

type hashOutcome struct {
	score    float64
	coverage models.Coverage
	err      error
}

type structuralOutcome struct {
	score    *float64
	parseErr error
	err      error
}

// Analyze compares a and b. Unsupported languages and exceeded caps are returned as errors;
// a file that does not parse only makes the structural score unavailable.
func (e *Engine) Analyze(ctx context.Context, a, b models.SourceFile) (*models.AnalysisResult, error) {
	start := time.Now()

	for _, f := range []models.SourceFile{a, b} {
		if err := e.check(f); err != nil {
			return nil, err
		}
	}

	var hash hashOutcome
	var structure structuralOutcome
	wg := conc.NewWaitGroup()
	wg.Go(func() { hash = e.hashBranch(ctx, a, b) })
	wg.Go(func() { structure = e.structuralBranch(ctx, a, b) })
	wg.Wait()

	// a parse cut short by ctx is not a parse failure
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if hash.err != nil {
		return nil, hash.err
	}
	if structure.err != nil {
		return nil, structure.err
	}

	result := &models.AnalysisResult{
		HashSimilarity: round2(hash.score),
		Coverage:       &hash.coverage,
	}
	if structure.score != nil {
		ast := round2(*structure.score)
		result.ASTSimilarity = &ast
	} else {
		result.ASTError = structure.parseErr.Error()
	}

	decision := e.thresholds.Decide(result.HashSimilarity, result.ASTSimilarity)
	result.Verdict = decision.Verdict
	result.Confidence = decision.Confidence

	log.Debug().
		Str("file1", a.Name).
		Str("file2", b.Name).
		Float64("hashSimilarity", result.HashSimilarity).
		Bool("astAvailable", result.ASTAvailable()).
		Str("verdict", string(result.Verdict)).
		Dur("took", time.Since(start)).
		Msg("Analysis completed")

	return result, nil
}

func (e *Engine) check(f models.SourceFile) error {
	if size := int64(len(f.Content)); size > e.cfg.MaxSourceBytes {
		return &models.ResourceLimitError{Resource: "source bytes of " + f.Name, Limit: e.cfg.MaxSourceBytes, Actual: size}
	}
	_, err := grammar.Lookup(f.Language)
	return err
}

func (e *Engine) hashBranch(ctx context.Context, a, b models.SourceFile) hashOutcome {
	tokensA, err := e.normalizer.Normalize(ctx, a)
	if err != nil {
		return hashOutcome{err: fmt.Errorf("failed to normalize %s: %w", a.Name, err)}
	}
	tokensB, err := e.normalizer.Normalize(ctx, b)
	if err != nil {
		return hashOutcome{err: fmt.Errorf("failed to normalize %s: %w", b.Name, err)}
	}

	setA := e.fingerprints.Fingerprint(tokensA)
	setB := e.fingerprints.Fingerprint(tokensB)
	return hashOutcome{
		score:    e.fingerprints.Similarity(setA, setB),
		coverage: e.fingerprints.Coverage(tokensA, setA, tokensB, setB),
	}
}

// structuralBranch stops at the first file that fails to parse
func (e *Engine) structuralBranch(ctx context.Context, a, b models.SourceFile) structuralOutcome {
	trees := make([]*canon.Tree, 0, 2)
	for _, f := range []models.SourceFile{a, b} {
		tree, err := canon.Parse(ctx, e.parser, f)
		if errors.Is(err, models.ErrParse) {
			log.Debug().Err(err).Str("file", f.Name).Msg("Structural comparison unavailable")
			return structuralOutcome{parseErr: fmt.Errorf("%s: %w", f.Name, err)}
		}
		if err != nil {
			return structuralOutcome{err: fmt.Errorf("failed to parse %s: %w", f.Name, err)}
		}
		trees = append(trees, tree)
	}

	if err := ctx.Err(); err != nil {
		return structuralOutcome{err: err}
	}
	score, err := e.comparator.Similarity(ctx, trees[0], trees[1])
	if err != nil {
		return structuralOutcome{err: fmt.Errorf("failed to compare syntax trees: %w", err)}
	}
	return structuralOutcome{score: &score}
}

// round2 clamps to [0,100] and rounds half away from zero to two decimals
func round2(v float64) float64 {
	v = math.Max(0, math.Min(100, v))
	return math.Round(v*100) / 100
}
