package recommend

import (
	"context"
	"fmt"

	"github.com/OldStager01/crop-advisor/internal/dataset"
	"github.com/OldStager01/crop-advisor/internal/store"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

// Target is one forecast the refresh job keeps warm.
type Target struct {
	Kind     models.ForecastKind
	District string
	Season   string
	Crop     string
}

func (t Target) Key() string {
	if t.Kind == models.ForecastKindDemand {
		return store.DemandKey(t.District)
	}
	return store.SeasonalKey(t.District, t.Season, t.Crop)
}

// RefreshTargets lists every forecast a request could ask for: the top
// crop of each district/season pair with enough history, and every
// district with enough smoothed demand history. Only canonical spellings
// are listed because requests always resolve to them.
func (s *Service) RefreshTargets() []Target {
	var targets []Target

	for _, p := range s.crops.Pairs() {
		d, _ := s.crops.ResolveDistrict(p.District)
		se, _ := s.crops.ResolveSeason(p.Season)
		if d != p.District || se != p.Season {
			continue
		}
		averages := dataset.Averages(s.crops.Slice(p.District, p.Season))
		if len(averages) == 0 {
			continue
		}
		crop := averages[0].Crop
		if len(s.crops.Series(p.District, p.Season, crop)) < s.cfg.Seasonal.MinHistory {
			continue
		}
		targets = append(targets, Target{
			Kind:     models.ForecastKindSeasonal,
			District: p.District,
			Season:   p.Season,
			Crop:     crop,
		})
	}

	seen := make(map[string]bool)
	for _, name := range s.districts.Districts() {
		canonical, _ := s.districts.Resolve(name)
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		if len(s.smoothedTotals(canonical)) < s.cfg.Demand.MinHistory {
			continue
		}
		targets = append(targets, Target{Kind: models.ForecastKindDemand, District: canonical})
	}

	return targets
}

// Refresh recomputes and stores the forecast for one target.
func (s *Service) Refresh(ctx context.Context, t Target) (*models.StoredForecast, error) {
	switch t.Kind {
	case models.ForecastKindSeasonal:
		return s.ForecastSeasonal(ctx, t.District, t.Season, t.Crop)
	case models.ForecastKindDemand:
		return s.ForecastDemand(ctx, t.District)
	default:
		return nil, fmt.Errorf("unknown forecast kind %q", t.Kind)
	}
}
