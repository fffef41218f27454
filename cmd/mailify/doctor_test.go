package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"testing"

	"github.com/2bitbit/mailify-md/internal/render"
)

// fakeHost returns a host where Chrome lives at /usr/bin/chrome and only
// the given paths exist.
func fakeHost(vars map[string]string, existing ...string) doctorHost {
	exists := make(map[string]bool, len(existing))
	for _, p := range existing {
		exists[p] = true
	}
	return doctorHost{
		getenv:   func(k string) string { return vars[k] },
		lookPath: func() (string, bool) { return "/usr/bin/chrome", exists["/usr/bin/chrome"] },
		stat: func(path string) (os.FileInfo, error) {
			if exists[path] {
				return nil, nil
			}
			return nil, fs.ErrNotExist
		},
		version:   func(string) (string, error) { return "Chromium 130.0", nil },
		tempDir:   func() string { return "/tmp" },
		writeTemp: func(string) error { return nil },
	}
}

func TestRunDoctor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		host        func() doctorHost
		wantStatus  string
		wantSandbox bool
		wantMsg     string
	}{
		{
			name:        "ready",
			host:        func() doctorHost { return fakeHost(nil, "/usr/bin/chrome") },
			wantStatus:  statusReady,
			wantSandbox: true,
		},
		{
			name:       "chrome missing is a warning",
			host:       func() doctorHost { return fakeHost(nil) },
			wantStatus: statusWarnings,
			wantMsg:    "downloaded on first run",
		},
		{
			name: "bad browser bin is an error",
			host: func() doctorHost {
				return fakeHost(map[string]string{render.EnvBrowserBin: "/opt/none/chrome"})
			},
			wantStatus: statusErrors,
			wantMsg:    "Chrome not found at /opt/none/chrome",
		},
		{
			name: "version failure is a warning",
			host: func() doctorHost {
				p := fakeHost(nil, "/usr/bin/chrome")
				p.version = func(string) (string, error) { return "", errors.New("exit 1") }
				return p
			},
			wantStatus:  statusWarnings,
			wantSandbox: true,
			wantMsg:     "Could not get Chrome version",
		},
		{
			name: "container without no-sandbox",
			host: func() doctorHost {
				return fakeHost(map[string]string{envContainer: "1"}, "/usr/bin/chrome")
			},
			wantStatus:  statusWarnings,
			wantSandbox: true,
			wantMsg:     render.EnvNoSandbox + "=1",
		},
		{
			name: "ci with no-sandbox",
			host: func() doctorHost {
				return fakeHost(map[string]string{"CI": "true", render.EnvNoSandbox: "1"}, "/usr/bin/chrome")
			},
			wantStatus: statusReady,
		},
		{
			name: "temp not writable",
			host: func() doctorHost {
				p := fakeHost(nil, "/usr/bin/chrome")
				p.writeTemp = func(string) error { return fs.ErrPermission }
				return p
			},
			wantStatus:  statusErrors,
			wantSandbox: true,
			wantMsg:     "Temp directory not writable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := runDoctor(tt.host())
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q (warnings %v, errors %v)", r.Status, tt.wantStatus, r.Warnings, r.Errors)
			}
			if r.Chrome.Sandbox != tt.wantSandbox {
				t.Errorf("Sandbox = %v, want %v", r.Chrome.Sandbox, tt.wantSandbox)
			}
			if tt.wantMsg != "" {
				all := strings.Join(append(r.Warnings, r.Errors...), "\n")
				if !strings.Contains(all, tt.wantMsg) {
					t.Errorf("messages = %q, want containing %q", all, tt.wantMsg)
				}
			}
			if r.Env.OS != runtime.GOOS || len(r.Themes) == 0 {
				t.Errorf("Env = %+v, Themes = %v", r.Env, r.Themes)
			}
		})
	}
}

func TestIsContainer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		vars     map[string]string
		existing []string
		want     bool
		wantHint string
	}{
		{"none", nil, nil, false, ""},
		{"override", map[string]string{envContainer: "1"}, nil, true, envContainer + "=1"},
		{"dockerenv", nil, []string{"/.dockerenv"}, true, "/.dockerenv"},
		{"podman", map[string]string{"container": "podman"}, nil, true, "container=podman"},
		{"kubernetes", map[string]string{"KUBERNETES_SERVICE_HOST": "10.0.0.1"}, nil, true, "KUBERNETES_SERVICE_HOST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, hint := isContainer(fakeHost(tt.vars, tt.existing...))
			if got != tt.want || hint != tt.wantHint {
				t.Errorf("isContainer() = (%v, %q), want (%v, %q)", got, hint, tt.want, tt.wantHint)
			}
		})
	}
}

func TestPrintDoctorResult(t *testing.T) {
	t.Parallel()

	r := runDoctor(fakeHost(map[string]string{envContainer: "1"}, "/usr/bin/chrome"))
	var buf bytes.Buffer
	printDoctorResult(&buf, r)

	for _, want := range []string{
		"mailify doctor",
		"[OK] Found at /usr/bin/chrome",
		"[OK] Version: Chromium 130.0",
		"Container: detected (MAILIFY_CONTAINER=1)",
		"Themes: dark, light",
		"[WARN]",
		"Status: Ready with warnings",
	} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output missing %q:\n%s", want, buf.String())
		}
	}
}

func TestRunDoctorCmd_JSONOutput(t *testing.T) {
	t.Parallel()

	env, stdout, _, _ := testEnv(nil, nil)
	code := runDoctorCmd([]string{"--json"}, env)

	var result doctorResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
	}
	switch result.Status {
	case statusReady, statusWarnings:
		if code != ExitSuccess {
			t.Errorf("exit code = %d for status %q", code, result.Status)
		}
	case statusErrors:
		if code != ExitGeneral {
			t.Errorf("exit code = %d for status %q", code, result.Status)
		}
	default:
		t.Errorf("invalid status %q", result.Status)
	}
	if result.Env.Arch != runtime.GOARCH {
		t.Errorf("Arch = %q, want %q", result.Env.Arch, runtime.GOARCH)
	}
}
