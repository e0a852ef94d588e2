package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceTypeInNeed(t *testing.T) {
	tests := []struct {
		name       string
		demand     int
		population int
		want       int
	}{
		{
			name:       "exact thousand",
			demand:     120,
			population: 1000,
			want:       120,
		},
		{
			name:       "fraction rounds up",
			demand:     120,
			population: 1001,
			want:       121,
		},
		{
			name:       "small population still rounds up",
			demand:     61,
			population: 1,
			want:       1,
		},
		{
			name:       "zero population",
			demand:     120,
			population: 0,
			want:       0,
		},
		{
			name:       "negative population treated as empty",
			demand:     120,
			population: -5,
			want:       0,
		},
		{
			name:       "zero demand",
			demand:     0,
			population: 10000,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ServiceType{Name: "school", Demand: tt.demand, Accessibility: 15}
			assert.Equal(t, tt.want, st.InNeed(tt.population))
		})
	}
}

func TestServiceTypeValidate(t *testing.T) {
	tests := []struct {
		name    string
		st      ServiceType
		wantErr error
	}{
		{
			name: "valid",
			st: ServiceType{
				Name:          "school",
				Demand:        120,
				Accessibility: 15,
				LandUses:      []LandUse{LandUseResidential},
				Bricks:        []Brick{{Capacity: 600, Area: 12000}},
			},
		},
		{
			name:    "empty name rejected",
			st:      ServiceType{Demand: 1, Accessibility: 1},
			wantErr: ErrInvalidName,
		},
		{
			name:    "negative demand rejected",
			st:      ServiceType{Name: "x", Demand: -1},
			wantErr: ErrInvalidDemand,
		},
		{
			name:    "negative accessibility rejected",
			st:      ServiceType{Name: "x", Accessibility: -1},
			wantErr: ErrInvalidAccessibility,
		},
		{
			name:    "bad land use rejected",
			st:      ServiceType{Name: "x", LandUses: []LandUse{"park"}},
			wantErr: ErrUnknownLandUse,
		},
		{
			name:    "zero capacity brick rejected",
			st:      ServiceType{Name: "x", Bricks: []Brick{{Capacity: 0, Area: 10}}},
			wantErr: ErrInvalidCapacity,
		},
		{
			name:    "zero area brick rejected",
			st:      ServiceType{Name: "x", Bricks: []Brick{{Capacity: 10, Area: 0}}},
			wantErr: ErrInvalidArea,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.st.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServiceTypeBrickSelection(t *testing.T) {
	st := ServiceType{
		Name: "kindergarten",
		Bricks: []Brick{
			{Capacity: 180, Area: 720, Integrated: true},
			{Capacity: 280, Area: 1100, Integrated: true},
			{Capacity: 180, Area: 2000},
			{Capacity: 280, Area: 3500},
		},
	}

	t.Run("by area integrated", func(t *testing.T) {
		b, ok := st.BrickByArea(800, true)
		assert.True(t, ok)
		assert.Equal(t, 180, b.Capacity)
	})

	t.Run("by area standalone", func(t *testing.T) {
		b, ok := st.BrickByArea(3000, false)
		assert.True(t, ok)
		assert.Equal(t, 280, b.Capacity)
	})

	t.Run("by capacity", func(t *testing.T) {
		b, ok := st.BrickByCapacity(300, true)
		assert.True(t, ok)
		assert.Equal(t, 280, b.Capacity)
		assert.Equal(t, 1100.0, b.Area)
	})

	t.Run("smallest", func(t *testing.T) {
		b, ok := st.SmallestBrick(false)
		assert.True(t, ok)
		assert.Equal(t, 2000.0, b.Area)
	})

	t.Run("no matching bricks", func(t *testing.T) {
		onlyIntegrated := ServiceType{Bricks: []Brick{{Capacity: 1, Area: 1, Integrated: true}}}
		_, ok := onlyIntegrated.BrickByArea(100, false)
		assert.False(t, ok)
	})
}

func TestServiceTypeAllowedOn(t *testing.T) {
	st := ServiceType{Name: "school", LandUses: []LandUse{LandUseResidential, LandUseMixed}}
	assert.True(t, st.AllowedOn(LandUseResidential))
	assert.True(t, st.AllowedOn(LandUseMixed))
	assert.False(t, st.AllowedOn(LandUseIndustrial))

	unbound := ServiceType{Name: "anything"}
	assert.True(t, unbound.AllowedOn(LandUseIndustrial), "no bindings means allowed anywhere")
}
