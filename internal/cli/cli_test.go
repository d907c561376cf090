package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegrid/internal/app"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      string
		expectedConfig *app.Config
	}{
		{
			name: "All flags",
			args: []string{
				"-graph", "/m/mlp.yaml",
				"--out=/tmp/out",
				"--batches=8",
				"--event-pool-size=512",
				"--timeline",
				"--no-color",
				"--simulate",
				"--simulate-timeout=5s",
				"--log-level=DEBUG",
				"--log-format=text",
				"/m/spec.hcl", "/m/more",
			},
			expectedConfig: &app.Config{
				GraphPath:       "/m/mlp.yaml",
				SpecPaths:       []string{"/m/spec.hcl", "/m/more"},
				OutDir:          "/tmp/out",
				Batches:         8,
				EventPoolSize:   512,
				Timeline:        true,
				NoColor:         true,
				Simulate:        true,
				SimulateTimeout: 5 * time.Second,
				LogLevel:        "debug",
				LogFormat:       "text",
			},
		},
		{
			name: "Shorthand flag and defaults",
			args: []string{"-g", "g.yaml", "spec"},
			expectedConfig: &app.Config{
				GraphPath:       "g.yaml",
				SpecPaths:       []string{"spec"},
				OutDir:          app.DefaultOutDir,
				SimulateTimeout: app.DefaultSimulateTimeout,
				LogLevel:        "info",
				LogFormat:       "json",
			},
		},
		{
			name:       "No arguments prints usage",
			args:       nil,
			expectExit: true,
		},
		{
			name:       "Help flag",
			args:       []string{"-h"},
			expectExit: true,
		},
		{
			name:      "Missing graph",
			args:      []string{"spec.hcl"},
			expectErr: "missing graph file",
		},
		{
			name:      "Missing spec",
			args:      []string{"-graph", "g.yaml"},
			expectErr: "specification path is required",
		},
		{
			name:      "Invalid log format",
			args:      []string{"-graph", "g.yaml", "-log-format", "xml", "spec"},
			expectErr: "invalid log-format",
		},
		{
			name:      "Invalid log level",
			args:      []string{"-graph", "g.yaml", "-log-level", "loud", "spec"},
			expectErr: "invalid log-level",
		},
		{
			name:      "Negative batches",
			args:      []string{"-graph", "g.yaml", "-batches", "-1", "spec"},
			expectErr: "must not be negative",
		},
		{
			name:      "Zero simulate timeout",
			args:      []string{"-graph", "g.yaml", "-simulate-timeout", "0s", "spec"},
			expectErr: "invalid simulate-timeout",
		},
		{
			name:      "Unknown flag",
			args:      []string{"--workers=3"},
			expectErr: "flag provided but not defined",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			cfg, exit, err := Parse(tc.args, &out)

			if tc.expectErr != "" {
				require.Error(t, err)
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, 2, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectExit, exit)
			if tc.expectExit {
				assert.Contains(t, out.String(), "Usage:")
				assert.Nil(t, cfg)
				return
			}
			if diff := cmp.Diff(tc.expectedConfig, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
