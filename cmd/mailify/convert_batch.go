package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	mailify "github.com/2bitbit/mailify-md"
	"github.com/2bitbit/mailify-md/internal/fileutil"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for batch operations.
var (
	ErrNoInput      = errors.New("no input specified")
	ErrReadMarkdown = errors.New("failed to read markdown file")
	ErrWriteHTML    = errors.New("failed to write HTML file")
	ErrOutputDir    = errors.New("failed to create output directory")
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Warnings   []mailify.Warning
	Err        error
	Duration   time.Duration
}

// batchError reports failed conversions. It unwraps to the first failure so
// exit codes and hints follow the most relevant cause.
type batchError struct {
	failed int
	total  int
	first  error
}

func (e *batchError) Error() string {
	if e.total == 1 {
		return e.first.Error()
	}
	return fmt.Sprintf("%d of %d conversions failed; first: %v", e.failed, e.total, e.first)
}

func (e *batchError) Unwrap() error { return e.first }

// convertBatch processes files concurrently using the converter pool.
// Results keep the order of files.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire(ctx)
			if err != nil {
				for idx := range jobs {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: err}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{InputPath: files[idx].InputPath, Err: ctx.Err()}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile converts one Markdown file and writes its HTML next to it or
// to f.OutputPath.
func convertFile(ctx context.Context, conv Converter, f FileToConvert) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrReadMarkdown, err))
	}

	sourceDir, err := filepath.Abs(filepath.Dir(f.InputPath))
	if err != nil {
		sourceDir = filepath.Dir(f.InputPath)
	}

	res, err := conv.Convert(ctx, mailify.Input{
		Markdown:  string(content),
		SourceDir: sourceDir,
		Title:     documentTitle(f.InputPath),
	})
	if err != nil {
		return fail(fmt.Errorf("%s: %w", f.InputPath, err))
	}
	result.Warnings = res.Warnings

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrOutputDir, err))
	}
	// #nosec G306 -- HTML files are meant to be readable
	if err := fileutil.WriteFileAtomic(f.OutputPath, []byte(res.HTML), filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWriteHTML, err))
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
	Warnings  int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.Warnings += len(r.Warnings)
	}
	return summary
}

// printResults outputs conversion results and returns the batch error,
// nil when every file converted. A single failed file is left to the
// caller to report.
func printResults(results []ConversionResult, flags commonFlags, env *Environment) error {
	summary := countResults(results)

	var first error
	for _, r := range results {
		if r.Err != nil {
			if first == nil {
				first = r.Err
			}
			if len(results) > 1 {
				fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			}
			continue
		}

		if flags.quiet {
			continue
		}

		if flags.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)%s\n", r.InputPath, r.OutputPath,
				r.Duration.Round(time.Millisecond), warningSuffix(len(r.Warnings)))
			for _, w := range r.Warnings {
				fmt.Fprintf(env.Stdout, "  warning: %s\n", w)
			}
		} else {
			fmt.Fprintf(env.Stdout, "Created %s%s\n", r.OutputPath, warningSuffix(len(r.Warnings)))
		}
	}

	if !flags.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed, %d warnings\n",
			summary.Succeeded, summary.Failed, summary.Warnings)
	}

	if summary.Failed == 0 {
		return nil
	}
	return &batchError{failed: summary.Failed, total: len(results), first: first}
}

func warningSuffix(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return " (1 warning)"
	default:
		return fmt.Sprintf(" (%d warnings)", n)
	}
}
