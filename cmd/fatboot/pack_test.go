package main

import (
	"bytes"
	"testing"

	"github.com/aligator/fatboot/loader"
	"github.com/aligator/fatboot/lz4"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memFs replaces the files of the command line with an in memory filesystem for one test.
func memFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	prev := osFs
	osFs = fs
	t.Cleanup(func() {
		osFs = prev
	})
	return fs
}

func TestPack_Level(t *testing.T) {
	payload := bytes.Repeat([]byte("vmlinuz initrd cmdline=console=ttyS0 "), 300)

	tests := []struct {
		name      string
		config    string
		args      []string
		wantLevel int
		wantErr   error
	}{
		{
			name:      "default",
			args:      []string{"payload", "payload.lz4"},
			wantLevel: lz4.DefaultLevel,
		},
		{
			name:      "flag",
			args:      []string{"-l", "4", "payload", "payload.lz4"},
			wantLevel: 4,
		},
		{
			name:      "configuration",
			config:    "compression_level: 3\n",
			args:      []string{"-c", "fatboot.yaml", "payload", "payload.lz4"},
			wantLevel: 3,
		},
		{
			name:      "configuration without level",
			config:    "paths: [KERNEL.LZ4]\n",
			args:      []string{"-c", "fatboot.yaml", "payload", "payload.lz4"},
			wantLevel: lz4.DefaultLevel,
		},
		{
			name:      "flag overrides configuration",
			config:    "compression_level: 3\n",
			args:      []string{"--config", "fatboot.yaml", "--level", "12", "payload", "payload.lz4"},
			wantLevel: 12,
		},
		{
			name:    "invalid configuration level",
			config:  "compression_level: 17\n",
			args:    []string{"-c", "fatboot.yaml", "-l", "2", "payload", "payload.lz4"},
			wantErr: loader.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFs(t)
			require.NoError(t, afero.WriteFile(fs, "payload", payload, 0644))
			if tt.config != "" {
				require.NoError(t, afero.WriteFile(fs, "fatboot.yaml", []byte(tt.config), 0644))
			}

			hook := test.NewGlobal()
			level := log.GetLevel()
			log.SetLevel(log.DebugLevel)
			defer log.SetLevel(level)

			err := pack(tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				exists, err := afero.Exists(fs, "payload.lz4")
				require.NoError(t, err)
				assert.False(t, exists)
				return
			}
			require.NoError(t, err)

			require.NotNil(t, hook.LastEntry())
			assert.Equal(t, "packed payload", hook.LastEntry().Message)
			assert.Equal(t, tt.wantLevel, hook.LastEntry().Data["level"])

			want, err := lz4.Pack(payload, tt.wantLevel)
			require.NoError(t, err)
			got, err := afero.ReadFile(fs, "payload.lz4")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			data, err := lz4.Unpack(got, 0)
			require.NoError(t, err)
			assert.Equal(t, payload, data)
		})
	}
}

func TestPack_MissingConfig(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, afero.WriteFile(fs, "payload", []byte("payload"), 0644))

	assert.Error(t, pack([]string{"-c", "missing.yaml", "payload", "payload.lz4"}))
}
