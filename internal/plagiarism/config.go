package plagiarism

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// EngineConfig is the operator-tunable part of an analysis
type EngineConfig struct {
	// Fingerprinting
	KGram                   int  `koanf:"kgram"`
	Window                  int  `koanf:"window"`
	CanonicalizeIdentifiers bool `koanf:"canonicalize_identifiers"`

	// Verdict thresholds (percent, strict)
	HashThreshold float64 `koanf:"hash_threshold"`
	ASTThreshold  float64 `koanf:"ast_threshold"`

	// Structural comparison
	StructuralFloor float64 `koanf:"structural_floor"`
	NearMatch       float64 `koanf:"near_match"`
	TEDTopN         int     `koanf:"ted_top_n"`
	TEDMaxNodes     int     `koanf:"ted_max_nodes"`
	TEDBudget       int64   `koanf:"ted_budget"`

	// Resource caps
	MaxSourceBytes int64 `koanf:"max_source_bytes"`
	MaxTreeNodes   int   `koanf:"max_tree_nodes"`
	MaxTreeDepth   int   `koanf:"max_tree_depth"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		KGram:                   5,
		Window:                  4,
		CanonicalizeIdentifiers: false,
		HashThreshold:           60,
		ASTThreshold:            70,
		StructuralFloor:         0.5,
		NearMatch:               0.8,
		TEDTopN:                 8,
		TEDMaxNodes:             256,
		TEDBudget:               250_000_000,
		MaxSourceBytes:          1 << 20,
		MaxTreeNodes:            200_000,
		MaxTreeDepth:            1_500,
	}
}

func (c EngineConfig) Validate() error {
	if c.KGram <= 0 {
		return fmt.Errorf("kgram must be greater than 0")
	}
	if c.Window <= 0 {
		return fmt.Errorf("window must be greater than 0")
	}
	if c.HashThreshold < 0 || c.HashThreshold > 100 {
		return fmt.Errorf("hash_threshold must be within [0,100], got %v", c.HashThreshold)
	}
	if c.ASTThreshold < 0 || c.ASTThreshold > 100 {
		return fmt.Errorf("ast_threshold must be within [0,100], got %v", c.ASTThreshold)
	}
	if c.StructuralFloor < 0 || c.StructuralFloor > 1 {
		return fmt.Errorf("structural_floor must be within [0,1], got %v", c.StructuralFloor)
	}
	if c.NearMatch <= 0 || c.NearMatch > 1 {
		return fmt.Errorf("near_match must be within (0,1], got %v", c.NearMatch)
	}
	if c.TEDTopN < 0 {
		return fmt.Errorf("ted_top_n must not be negative")
	}
	if c.TEDMaxNodes <= 0 {
		return fmt.Errorf("ted_max_nodes must be greater than 0")
	}
	if c.TEDBudget < 0 {
		return fmt.Errorf("ted_budget must not be negative")
	}
	if c.MaxSourceBytes <= 0 {
		return fmt.Errorf("max_source_bytes must be greater than 0")
	}
	if c.MaxTreeNodes <= 0 {
		return fmt.Errorf("max_tree_nodes must be greater than 0")
	}
	if c.MaxTreeDepth <= 0 {
		return fmt.Errorf("max_tree_depth must be greater than 0")
	}
	return nil
}

// Digest identifies the settings that influence a result; it is part of every cache key
func (c EngineConfig) Digest() string {
	sum := blake3.Sum256([]byte(fmt.Sprintf("%+v", c)))
	return hex.EncodeToString(sum[:8])
}
