package render

import "testing"

func TestSettingsFromEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		env           map[string]string
		wantBin       string
		wantNoSandbox bool
	}{
		{
			name: "empty environment",
		},
		{
			name:          "CI disables sandbox",
			env:           map[string]string{EnvCI: "true"},
			wantNoSandbox: true,
		},
		{
			name: "CI must be exactly true",
			env:  map[string]string{EnvCI: "1"},
		},
		{
			name:          "custom binary implies container",
			env:           map[string]string{EnvBrowserBin: "/usr/bin/chromium"},
			wantBin:       "/usr/bin/chromium",
			wantNoSandbox: true,
		},
		{
			name:          "explicit no sandbox",
			env:           map[string]string{EnvNoSandbox: "1"},
			wantNoSandbox: true,
		},
		{
			name:          "explicit no sandbox true",
			env:           map[string]string{EnvNoSandbox: "true"},
			wantNoSandbox: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := settingsFromEnv(func(k string) string { return tt.env[k] })
			if got.bin != tt.wantBin {
				t.Errorf("bin = %q, want %q", got.bin, tt.wantBin)
			}
			if got.noSandbox != tt.wantNoSandbox {
				t.Errorf("noSandbox = %v, want %v", got.noSandbox, tt.wantNoSandbox)
			}
		})
	}
}
