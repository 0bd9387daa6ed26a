package redis

import (
	"strings"
	"testing"

	"github.com/MrSnakeDoc/hrtlog/internal/domain"
)

func TestCacheKey(t *testing.T) {
	const gen = 7
	base := CacheKey(ScopeTimeline, gen, domain.Filter{Search: "estradiol", Start: "2024-01-01"})

	tests := []struct {
		name string
		key  string
		same bool
	}{
		{"case and spaces ignored", CacheKey(ScopeTimeline, gen, domain.Filter{Search: "  Estradiol ", Start: "2024-01-01"}), true},
		{"different search", CacheKey(ScopeTimeline, gen, domain.Filter{Search: "spiro", Start: "2024-01-01"}), false},
		{"different bound", CacheKey(ScopeTimeline, gen, domain.Filter{Search: "estradiol", End: "2024-01-01"}), false},
		{"different scope", CacheKey(ScopeExport, gen, domain.Filter{Search: "estradiol", Start: "2024-01-01"}), false},
		{"different generation", CacheKey(ScopeTimeline, gen+1, domain.Filter{Search: "estradiol", Start: "2024-01-01"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key == base; got != tt.same {
				t.Errorf("CacheKey() equal = %v, want %v (%s vs %s)", got, tt.same, tt.key, base)
			}
		})
	}

	if !strings.HasPrefix(base, KeyPrefixCache+ScopeTimeline+":") {
		t.Errorf("CacheKey() = %v, want prefix %v", base, KeyPrefixCache)
	}
}
