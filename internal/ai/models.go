package ai

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var versionRe = regexp.MustCompile(`(\d+\.?\d*)`)

// ModelScore ranks a model id: newer versions first, then larger sizes, then
// preferred families.
func ModelScore(id string) float64 {
	mid := strings.ToLower(id)
	score := 0.0
	if m := versionRe.FindString(mid); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			score += v * 1000
		}
	}
	if strings.Contains(mid, "70b") {
		score += 500
	} else if strings.Contains(mid, "8b") {
		score += 100
	}
	if strings.Contains(mid, "llama") {
		score += 50
	} else if strings.Contains(mid, "mixtral") {
		score += 40
	}
	return score
}

// RankModels orders ids by ModelScore, highest first. Equal scores keep
// their input order.
func RankModels(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return ModelScore(out[i]) > ModelScore(out[j])
	})
	return out
}

// ModelLister is implemented by providers that can enumerate their models.
type ModelLister interface {
	ListModelIDs(ctx context.Context) ([]string, error)
}

// DiscoverModels lists and ranks the provider's models, returning fallback
// when listing fails or yields nothing.
func DiscoverModels(ctx context.Context, l ModelLister, fallback []string) []string {
	ids, err := l.ListModelIDs(ctx)
	if err != nil || len(ids) == 0 {
		return append([]string(nil), fallback...)
	}
	return RankModels(ids)
}
