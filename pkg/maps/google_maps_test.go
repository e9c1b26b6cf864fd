package maps

import (
	"testing"

	"googlemaps.github.io/maps"
)

func TestCityFromComponents(t *testing.T) {
	tests := []struct {
		name       string
		components []maps.AddressComponent
		want       string
	}{
		{
			name: "locality wins",
			components: []maps.AddressComponent{
				{LongName: "Ontario", Types: []string{"administrative_area_level_1"}},
				{LongName: "Waterloo", Types: []string{"locality", "political"}},
			},
			want: "Waterloo",
		},
		{
			name: "postal town fallback",
			components: []maps.AddressComponent{
				{LongName: "Oxfordshire", Types: []string{"administrative_area_level_2"}},
				{LongName: "Oxford", Types: []string{"postal_town"}},
			},
			want: "Oxford",
		},
		{
			name:       "nothing usable",
			components: []maps.AddressComponent{{LongName: "Canada", Types: []string{"country"}}},
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cityFromComponents(tt.components); got != tt.want {
				t.Errorf("cityFromComponents() = %q, want %q", got, tt.want)
			}
		})
	}
}
