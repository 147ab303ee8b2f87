package cfg

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Params holds the tunable feed assembly parameters. The defaults match
// production; a YAML file referenced by --params-file overrides them.
type Params struct {
	TrendingShare     float64 `yaml:"trending_share"`
	PersonalizedShare float64 `yaml:"personalized_share"`
	FriendsShare      float64 `yaml:"friends_share"`

	// Oversample is the multiplier applied to each bucket's candidate
	// request to leave room for seen-item exclusion.
	Oversample int `yaml:"oversample"`

	// Tiered shuffle windows: the first FixedTop positions stay in score
	// order, the next LightWindow positions are permuted among
	// themselves, everything after is permuted fully.
	FixedTop    int `yaml:"fixed_top"`
	LightWindow int `yaml:"light_window"`

	DefaultGenres []string `yaml:"default_genres"`
	Genres        []string `yaml:"genres"`

	PlanSize                int     `yaml:"plan_size"`
	SessionTTLSeconds       int     `yaml:"session_ttl_seconds"`
	PlanTTLSeconds          int     `yaml:"plan_ttl_seconds"`
	ContextTTLSeconds       int     `yaml:"context_cache_ttl_seconds"`
	HydrationTTLSeconds     int     `yaml:"hydration_cache_ttl_seconds"`
	BloomCapacity           int     `yaml:"bloom_capacity"`
	BloomFalsePositive      float64 `yaml:"bloom_false_positive_rate"`
	BloomResetIntervalHours int     `yaml:"bloom_reset_interval_hours"`
}

func DefaultParams() *Params {
	return &Params{
		TrendingShare:           0.5,
		PersonalizedShare:       0.3,
		FriendsShare:            0.2,
		Oversample:              3,
		FixedTop:                3,
		LightWindow:             4,
		DefaultGenres:           []string{"action", "comedy", "drama"},
		Genres:                  []string{"action", "comedy", "drama", "horror", "thriller", "romance", "scifi", "fantasy", "documentary", "animation"},
		PlanSize:                50,
		SessionTTLSeconds:       600,
		PlanTTLSeconds:          600,
		ContextTTLSeconds:       300,
		HydrationTTLSeconds:     300,
		BloomCapacity:           10000,
		BloomFalsePositive:      0.01,
		BloomResetIntervalHours: 720,
	}
}

// LoadParams reads the YAML parameter file if one is configured and
// merges it over the defaults.
func LoadParams(path string) (*Params, error) {
	params := DefaultParams()

	if path == "" {
		return params, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}

	if err := yaml.Unmarshal(data, params); err != nil {
		return nil, fmt.Errorf("failed to parse params YAML: %w", err)
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params %s: %w", path, err)
	}

	return params, nil
}

func (p *Params) Validate() error {
	sum := p.TrendingShare + p.PersonalizedShare + p.FriendsShare
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("bucket shares must sum to 1.0, got %.3f", sum)
	}

	nonNegativeFields := map[string]int{
		"oversample":          p.Oversample,
		"fixed top":           p.FixedTop,
		"light window":        p.LightWindow,
		"plan size":           p.PlanSize,
		"session TTL":         p.SessionTTLSeconds,
		"plan TTL":            p.PlanTTLSeconds,
		"context cache TTL":   p.ContextTTLSeconds,
		"hydration cache TTL": p.HydrationTTLSeconds,
		"bloom capacity":      p.BloomCapacity,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if p.BloomFalsePositive <= 0 || p.BloomFalsePositive >= 1 {
		return fmt.Errorf("bloom false positive rate must be in (0, 1), got %v", p.BloomFalsePositive)
	}

	return nil
}
