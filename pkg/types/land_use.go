package types

import "strings"

// LandUse classifies the dominant function of a block.
// Implements: prd003-city-interface R2.
type LandUse string

// Recognized land use values.
const (
	LandUseResidential LandUse = "residential"
	LandUseBusiness    LandUse = "business"
	LandUseRecreation  LandUse = "recreation"
	LandUseSpecial     LandUse = "special"
	LandUseIndustrial  LandUse = "industrial"
	LandUseAgriculture LandUse = "agriculture"
	LandUseTransport   LandUse = "transport"
	LandUseMixed       LandUse = "mixed_use"
)

// AllLandUses returns every recognized land use in a stable order.
func AllLandUses() []LandUse {
	return []LandUse{
		LandUseResidential,
		LandUseBusiness,
		LandUseRecreation,
		LandUseSpecial,
		LandUseIndustrial,
		LandUseAgriculture,
		LandUseTransport,
		LandUseMixed,
	}
}

// validLandUses is the set of recognized land use values.
var validLandUses = map[LandUse]bool{
	LandUseResidential: true,
	LandUseBusiness:    true,
	LandUseRecreation:  true,
	LandUseSpecial:     true,
	LandUseIndustrial:  true,
	LandUseAgriculture: true,
	LandUseTransport:   true,
	LandUseMixed:       true,
}

// Valid reports whether lu is a recognized land use value.
func (lu LandUse) Valid() bool {
	return validLandUses[lu]
}

// String returns the land use as its storage value.
func (lu LandUse) String() string {
	return string(lu)
}

// ParseLandUse normalizes and parses a land use label. Case is folded,
// surrounding space trimmed, and hyphens and spaces become underscores,
// so "Mixed-Use" and "mixed use" both parse to LandUseMixed.
// Returns ErrUnknownLandUse for anything else.
// Implements: prd003-city-interface R2.2.
func ParseLandUse(s string) (LandUse, error) {
	n := strings.ToLower(strings.TrimSpace(s))
	n = strings.ReplaceAll(n, "-", "_")
	n = strings.ReplaceAll(n, " ", "_")
	lu := LandUse(n)
	if !lu.Valid() {
		return "", ErrUnknownLandUse
	}
	return lu, nil
}
