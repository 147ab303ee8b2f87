package cfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultParams(t *testing.T) {
	params := DefaultParams()

	if err := params.Validate(); err != nil {
		t.Fatalf("Expected defaults to validate, got error: %v", err)
	}

	if params.TrendingShare != 0.5 || params.PersonalizedShare != 0.3 || params.FriendsShare != 0.2 {
		t.Errorf("Expected 0.5/0.3/0.2 shares, got %v/%v/%v",
			params.TrendingShare, params.PersonalizedShare, params.FriendsShare)
	}
	if params.PlanSize != 50 {
		t.Errorf("Expected plan size 50, got %d", params.PlanSize)
	}
	if params.SessionTTLSeconds != 600 {
		t.Errorf("Expected session TTL 600s, got %d", params.SessionTTLSeconds)
	}
	if len(params.DefaultGenres) != 3 {
		t.Errorf("Expected 3 default genres, got %v", params.DefaultGenres)
	}
	if params.FixedTop != 3 || params.LightWindow != 4 {
		t.Errorf("Expected shuffle windows 3/4, got %d/%d", params.FixedTop, params.LightWindow)
	}
}

func TestLoadParamsWithoutFile(t *testing.T) {
	params, err := LoadParams("")
	if err != nil {
		t.Fatalf("Expected defaults without a file, got error: %v", err)
	}
	if params.PlanSize != 50 {
		t.Errorf("Expected default plan size, got %d", params.PlanSize)
	}
}

func TestLoadParamsMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yml")
	content := []byte("trending_share: 0.6\npersonalized_share: 0.25\nfriends_share: 0.15\nplan_size: 100\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	params, err := LoadParams(path)
	if err != nil {
		t.Fatalf("Expected params to load, got error: %v", err)
	}

	if params.TrendingShare != 0.6 {
		t.Errorf("Expected overridden trending share 0.6, got %v", params.TrendingShare)
	}
	if params.PlanSize != 100 {
		t.Errorf("Expected overridden plan size 100, got %d", params.PlanSize)
	}

	// Fields the file omits keep their defaults.
	if params.SessionTTLSeconds != 600 {
		t.Errorf("Expected default session TTL to survive the merge, got %d", params.SessionTTLSeconds)
	}
}

func TestLoadParamsMissingFile(t *testing.T) {
	if _, err := LoadParams("/nonexistent/params.yml"); err == nil {
		t.Error("Expected error for missing params file")
	}
}

func TestLoadParamsRejectsBadShares(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.yml")
	content := []byte("trending_share: 0.9\npersonalized_share: 0.3\nfriends_share: 0.2\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadParams(path); err == nil {
		t.Error("Expected validation error when shares do not sum to 1.0")
	}
}

func TestValidateRejectsNegativeValues(t *testing.T) {
	params := DefaultParams()
	params.PlanSize = -1

	if err := params.Validate(); err == nil {
		t.Error("Expected validation error for negative plan size")
	}
}

func TestValidateRejectsBadFalsePositiveRate(t *testing.T) {
	for _, rate := range []float64{0, 1, -0.5, 1.5} {
		params := DefaultParams()
		params.BloomFalsePositive = rate

		if err := params.Validate(); err == nil {
			t.Errorf("Expected validation error for false positive rate %v", rate)
		}
	}
}
