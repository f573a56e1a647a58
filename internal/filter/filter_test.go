package filter

import (
	"testing"

	"github.com/cryptovalleyjobs/jobfeed/internal/model"
)

func candidate(location, locationType string) model.Candidate {
	return model.Candidate{Title: "Engineer", Location: location, LocationTypeHint: locationType}
}

func TestGeoFilter_Eligible(t *testing.T) {
	tests := []struct {
		name      string
		candidate model.Candidate
		want      bool
	}{
		{
			name:      "remote location type wins over unrelated location",
			candidate: candidate("New York, NY", "remote"),
			want:      true,
		},
		{
			name:      "remote hint is case insensitive",
			candidate: candidate("", "Fully Remote"),
			want:      true,
		},
		{
			name:      "remote in location text",
			candidate: candidate("Remote - Europe", ""),
			want:      true,
		},
		{
			name:      "city name",
			candidate: candidate("Zug, Switzerland", ""),
			want:      true,
		},
		{
			name:      "german language variant",
			candidate: candidate("Zürich", "hybrid"),
			want:      true,
		},
		{
			name:      "crypto valley",
			candidate: candidate("Crypto Valley", ""),
			want:      true,
		},
		{
			name:      "unrelated location and no remote signal",
			candidate: candidate("London, UK", "onsite"),
			want:      false,
		},
		{
			name:      "empty location and no hint",
			candidate: candidate("", ""),
			want:      false,
		},
	}

	f := NewGeoFilter(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Eligible(tt.candidate); got != tt.want {
				t.Errorf("Eligible(%+v) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestGeoFilter_CustomKeywords(t *testing.T) {
	f := NewGeoFilter([]string{"  Vaduz ", "LIECHTENSTEIN"})

	if !f.Eligible(candidate("Vaduz", "")) {
		t.Error("expected Vaduz to match custom keyword list")
	}
	if !f.Eligible(candidate("Schaan, Liechtenstein", "")) {
		t.Error("expected keywords to be matched case-insensitively")
	}
	if f.Eligible(candidate("Zug, Switzerland", "")) {
		t.Error("custom list should replace the default Swiss keywords")
	}
}
