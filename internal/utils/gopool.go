package utils

import (
	"context"
	"sync"
)

// GoPool runs tasks on at most size goroutines at a time.
type GoPool struct {
	queue chan struct{}
	wg    *sync.WaitGroup
}

func NewGoPool(size int) *GoPool {
	if size <= 0 {
		size = 1
	}
	return &GoPool{
		queue: make(chan struct{}, size),
		wg:    &sync.WaitGroup{},
	}
}

// Go blocks until a slot is free and then runs f in its own goroutine. It
// returns ctx.Err() without running f if ctx is done first.
func (p *GoPool) Go(ctx context.Context, f func()) error {
	select {
	case p.queue <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.wg.Add(1)
	go func() {
		defer p.done()
		f()
	}()
	return nil
}

func (p *GoPool) done() {
	<-p.queue
	p.wg.Done()
}

// Wait waits for every task started with Go.
func (p *GoPool) Wait() {
	p.wg.Wait()
}
