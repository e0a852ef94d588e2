package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

func TestProfileFor(t *testing.T) {
	tests := []struct {
		lu   types.LandUse
		want Profile
	}{
		{lu: types.LandUseResidential, want: Profile{FSIMin: 0.5, FSIMax: 3.0, GSIMin: 0.2, GSIMax: 0.8}},
		{lu: types.LandUseBusiness, want: Profile{FSIMin: 1.0, FSIMax: 3.0, GSIMin: 0.0, GSIMax: 0.8}},
		{lu: types.LandUseRecreation, want: Profile{FSIMin: 0.05, FSIMax: 0.2, GSIMin: 0.0, GSIMax: 0.3}},
		{lu: types.LandUseSpecial, want: Profile{FSIMin: 0.05, FSIMax: 0.2, GSIMin: 0.05, GSIMax: 0.15}},
		{lu: types.LandUseIndustrial, want: Profile{FSIMin: 0.3, FSIMax: 1.5, GSIMin: 0.2, GSIMax: 0.8}},
		{lu: types.LandUseAgriculture, want: Profile{FSIMin: 0.1, FSIMax: 0.2, GSIMin: 0.0, GSIMax: 0.6}},
		{lu: types.LandUseTransport, want: Profile{FSIMin: 0.2, FSIMax: 1.0, GSIMin: 0.0, GSIMax: 0.8}},
	}

	for _, tt := range tests {
		t.Run(string(tt.lu), func(t *testing.T) {
			got, ok := ProfileFor(tt.lu)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ProfileFor(types.LandUseMixed)
	assert.False(t, ok)
}

func TestProfileContains(t *testing.T) {
	p, ok := ProfileFor(types.LandUseResidential)
	require.True(t, ok)

	assert.True(t, p.Contains(1.0, 0.3))
	assert.True(t, p.Contains(0.5, 0.2))
	assert.False(t, p.Contains(0.4, 0.3))
	assert.False(t, p.Contains(1.0, 0.9))
}
