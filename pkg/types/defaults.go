package types

// DefaultServiceTypes returns the built-in service type catalog seeded
// into a fresh archive: normative demand per 1000 residents, normative
// accessibility in minutes, allowed land uses, and standard bricks.
// Implements: prd003-city-interface R3.4.
func DefaultServiceTypes() []ServiceType {
	return []ServiceType{
		{
			Name:          "kindergarten",
			Demand:        61,
			Accessibility: 10,
			LandUses:      []LandUse{LandUseResidential, LandUseMixed},
			Bricks: []Brick{
				{Capacity: 180, Area: 720, Integrated: true},
				{Capacity: 280, Area: 1100, Integrated: true},
				{Capacity: 180, Area: 2000},
				{Capacity: 280, Area: 3500},
			},
		},
		{
			Name:          "school",
			Demand:        120,
			Accessibility: 15,
			LandUses:      []LandUse{LandUseResidential, LandUseMixed},
			Bricks: []Brick{
				{Capacity: 600, Area: 12000},
				{Capacity: 1100, Area: 20000},
			},
		},
		{
			Name:          "policlinic",
			Demand:        27,
			Accessibility: 15,
			LandUses:      []LandUse{LandUseResidential, LandUseMixed, LandUseBusiness},
			Bricks: []Brick{
				{Capacity: 100, Area: 500, Integrated: true},
				{Capacity: 500, Area: 4000},
			},
		},
		{
			Name:          "hospital",
			Demand:        9,
			Accessibility: 60,
			LandUses:      []LandUse{LandUseResidential, LandUseBusiness, LandUseSpecial},
			Bricks: []Brick{
				{Capacity: 240, Area: 25000},
				{Capacity: 600, Area: 45000},
			},
		},
		{
			Name:          "pharmacy",
			Demand:        50,
			Accessibility: 10,
			LandUses:      []LandUse{LandUseResidential, LandUseMixed, LandUseBusiness},
			Bricks: []Brick{
				{Capacity: 30, Area: 90, Integrated: true},
				{Capacity: 50, Area: 150, Integrated: true},
			},
		},
		{
			Name:          "recreational_area",
			Demand:        6000,
			Accessibility: 15,
			LandUses:      []LandUse{LandUseRecreation, LandUseResidential},
			Bricks: []Brick{
				{Capacity: 1000, Area: 10000},
				{Capacity: 5000, Area: 50000},
			},
		},
	}
}
