package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:   "valid sqlite",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/atlas"},
		},
		{
			name:   "valid with crs",
			config: Config{Backend: BackendSQLite, CRS: 32636},
		},
		{
			name:    "empty backend rejected",
			config:  Config{},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend rejected",
			config:  Config{Backend: "postgres"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "negative crs rejected",
			config:  Config{Backend: BackendSQLite, CRS: -1},
			wantErr: ErrCRSInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultServiceTypes(t *testing.T) {
	defaults := DefaultServiceTypes()
	assert.NotEmpty(t, defaults)

	seen := map[string]bool{}
	for _, st := range defaults {
		assert.NoError(t, st.Validate(), "default %q must validate", st.Name)
		assert.False(t, seen[st.Name], "duplicate default %q", st.Name)
		seen[st.Name] = true
		assert.NotEmpty(t, st.Bricks, "default %q needs bricks", st.Name)
	}

	assert.True(t, seen["school"])
	assert.True(t, seen["kindergarten"])
	assert.True(t, seen["hospital"])
}

func TestRunValidate(t *testing.T) {
	assert.NoError(t, Run{Kind: RunKindProvision}.Validate())
	assert.ErrorIs(t, Run{Kind: "bogus"}.Validate(), ErrUnknownRunKind)
	assert.ErrorIs(t, Run{}.Validate(), ErrUnknownRunKind)
}
