package main

import (
	"io"
	"os"

	mailify "github.com/2bitbit/mailify-md"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string
	// NewPool builds the converter pool for a batch. Tests swap it for a
	// fake so no browser starts.
	NewPool func(n int, opts ...mailify.Option) (Pool, error)
}

// DefaultEnv returns production dependencies.
func DefaultEnv() *Environment {
	return &Environment{
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		NewPool: newConverterPool,
	}
}
