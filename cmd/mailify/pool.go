package main

import (
	"context"
	"fmt"

	mailify "github.com/2bitbit/mailify-md"
)

// Converter is the interface for the conversion service.
type Converter interface {
	Convert(ctx context.Context, input mailify.Input) (*mailify.Result, error)
}

// Compile-time interface implementation check.
var _ Converter = (*mailify.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (Converter, error)
	Release(Converter)
	Size() int
	Close() error
}

// poolAdapter exposes a *mailify.ConverterPool as a Pool.
type poolAdapter struct {
	pool *mailify.ConverterPool
}

var _ Pool = (*poolAdapter)(nil)

// newConverterPool is the production Environment.NewPool.
func newConverterPool(n int, opts ...mailify.Option) (Pool, error) {
	p, err := mailify.NewConverterPool(n, opts...)
	if err != nil {
		return nil, err
	}
	return &poolAdapter{pool: p}, nil
}

func (a *poolAdapter) Acquire(ctx context.Context) (Converter, error) {
	conv, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Release panics when handed a Converter this pool did not give out.
func (a *poolAdapter) Release(c Converter) {
	conv, ok := c.(*mailify.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int { return a.pool.Size() }

func (a *poolAdapter) Close() error { return a.pool.Close() }
