package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	mailify "github.com/2bitbit/mailify-md"
)

// fakeConverter records inputs and returns canned results.
type fakeConverter struct {
	mu    sync.Mutex
	calls []mailify.Input
	fn    func(mailify.Input) (*mailify.Result, error)
}

func (f *fakeConverter) Convert(_ context.Context, in mailify.Input) (*mailify.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, in)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(in)
	}
	return &mailify.Result{HTML: "<html><title>" + in.Title + "</title></html>"}, nil
}

func (f *fakeConverter) inputs() []mailify.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mailify.Input(nil), f.calls...)
}

// fakePool hands out one shared converter.
type fakePool struct {
	conv       Converter
	size       int
	acquireErr error

	mu       sync.Mutex
	released int
	closed   bool
}

func (p *fakePool) Acquire(context.Context) (Converter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.conv, nil
}

func (p *fakePool) Release(Converter) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// poolRequest captures what runConvert asked the pool factory for.
type poolRequest struct {
	n    int
	opts []mailify.Option
}

// testEnv returns an Environment with captured output, an empty process
// environment and pool as the pool factory result.
func testEnv(pool *fakePool, vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer, *poolRequest) {
	var stdout, stderr bytes.Buffer
	req := &poolRequest{}
	env := &Environment{
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewPool: func(n int, opts ...mailify.Option) (Pool, error) {
			req.n = n
			req.opts = opts
			if pool == nil {
				return nil, errors.New("no pool")
			}
			pool.size = n
			return pool, nil
		},
	}
	return env, &stdout, &stderr, req
}

// setupTestDir creates a temp directory with the given file structure.
// Files map paths to content. Returns the temp directory path.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return tempDir
}
