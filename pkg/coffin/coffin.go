package coffin

import (
	"context"
	"fmt"
	"sync"

	"gopkg.in/tomb.v2"
)

type Coffin interface {
	// Alive returns true if the coffin is not in a dying or dead state.
	Alive() bool
	// Dead returns the channel that can be used to wait until
	// all goroutines have finished running.
	Dead() <-chan struct{}
	// Dying returns the channel that can be used to wait until
	// Kill is called.
	Dying() <-chan struct{}
	Err() (reason error)
	// Go runs f in a new goroutine and tracks its termination. If f
	// returns a non-nil error or panics, the coffin is killed with that
	// error as the death reason.
	Go(f func() error)
	// Gof is like Go, but wraps the returned error with the given
	// message and args.
	Gof(f func() error, msg string, args ...any)
	// GoWithContext is like Go, but passes the given context to f.
	GoWithContext(ctx context.Context, f func(ctx context.Context) error)
	// Kill puts the coffin in a dying state for the given reason,
	// closes the Dying channel, and sets Alive to false. Only the
	// first non-nil reason is recorded.
	Kill(reason error)
	// Wait blocks until all goroutines have finished running, and
	// then returns the reason for their death. If you never spawned
	// a goroutine, Wait returns nil.
	Wait() error
}

type coffin struct {
	// tomb.Tomb contains a mutex we are not allowed to copy
	tomb *tomb.Tomb
	// stops the goroutine keeping the coffin alive until the first Wait call
	markRunning func()
}

func New() Coffin {
	tmb := new(tomb.Tomb)

	return &coffin{
		tomb:        tmb,
		markRunning: prepareTomb(tmb),
	}
}

// WithContext returns a new coffin that is killed when the provided parent
// context is canceled, and a copy of parent with a replaced Done channel
// that is closed when either the coffin is dying or the parent is canceled.
func WithContext(parent context.Context) (Coffin, context.Context) {
	tmb, ctx := tomb.WithContext(parent)
	cfn := &coffin{
		tomb:        tmb,
		markRunning: prepareTomb(tmb),
	}

	return cfn, ctx
}

// prepareTomb spawns a goroutine which keeps the tomb from dying until the
// first real goroutine got started, so a coffin can be created some time
// before it is used.
func prepareTomb(tmb *tomb.Tomb) func() {
	once := &sync.Once{}
	ch := make(chan struct{})
	tmb.Go(func() error {
		<-ch

		return nil
	})

	return func() {
		once.Do(func() {
			close(ch)
		})
	}
}

func (c *coffin) Alive() bool {
	c.markRunning()

	return c.tomb.Alive()
}

func (c *coffin) Dead() <-chan struct{} {
	c.markRunning()

	return c.tomb.Dead()
}

func (c *coffin) Dying() <-chan struct{} {
	c.markRunning()

	return c.tomb.Dying()
}

func (c *coffin) Err() (reason error) {
	c.markRunning()

	return c.tomb.Err()
}

func (c *coffin) Go(f func() error) {
	c.tomb.Go(func() (err error) {
		defer func() {
			if panicErr := ResolveRecovery(recover()); panicErr != nil {
				err = panicErr
			}
		}()

		return f()
	})
}

func (c *coffin) Gof(f func() error, msg string, args ...any) {
	c.Go(func() error {
		if err := f(); err != nil {
			return fmt.Errorf(msg+": %w", append(args, err)...)
		}

		return nil
	})
}

func (c *coffin) GoWithContext(ctx context.Context, f func(ctx context.Context) error) {
	c.Go(func() error {
		return f(ctx)
	})
}

func (c *coffin) Kill(reason error) {
	c.markRunning()
	c.tomb.Kill(reason)
}

func (c *coffin) Wait() error {
	c.markRunning()

	return c.tomb.Wait()
}
