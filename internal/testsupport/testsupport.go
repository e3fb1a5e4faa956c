// Package testsupport provides goroutine-safe test helpers shared across
// the test suite.
//
// Calling t.Fatal or t.FailNow from inside a goroutine other than the test
// goroutine causes undefined behavior: both call runtime.Goexit, which only
// unwinds the calling goroutine, not the test. GoroutineTest collects errors
// over a channel instead and reports them from the test goroutine in Wait.
package testsupport

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// GoroutineTest collects errors raised from goroutines started during a
// test and reports them safely once every goroutine has finished.
//
//	gt := testsupport.NewGoroutineTest(t)
//	defer gt.Wait()
//	gt.Go(func() error {
//	    if got != want {
//	        return fmt.Errorf("got %v, want %v", got, want)
//	    }
//	    return nil
//	})
type GoroutineTest struct {
	t      *testing.T
	wg     sync.WaitGroup
	errors chan error
}

// NewGoroutineTest creates a GoroutineTest bound to t.
func NewGoroutineTest(t *testing.T) *GoroutineTest {
	return &GoroutineTest{t: t, errors: make(chan error, 64)}
}

// Go runs fn in a new goroutine. A non-nil return is reported by Wait.
func (gt *GoroutineTest) Go(fn func() error) {
	gt.wg.Add(1)
	go func() {
		defer gt.wg.Done()
		if err := fn(); err != nil {
			select {
			case gt.errors <- err:
			default:
				gt.t.Logf("testsupport: error channel full, dropping: %v", err)
			}
		}
	}()
}

// Wait blocks until every goroutine started with Go has returned, then
// fails the test if any of them reported an error.
func (gt *GoroutineTest) Wait() {
	gt.wg.Wait()
	close(gt.errors)

	var errs []error
	for err := range gt.errors {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return
	}
	gt.t.Errorf("goroutine test failed with %d error(s):", len(errs))
	for i, err := range errs {
		gt.t.Errorf("  [%d] %v", i+1, err)
	}
	gt.t.FailNow()
}

// Eventually polls condition until it returns true or timeout elapses.
func Eventually(timeout, interval time.Duration, condition func() bool) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return nil
		}
		time.Sleep(interval)
	}
	return fmt.Errorf("condition not met within %v", timeout)
}

// WithTimeout runs fn and returns its error, or a timeout error if fn has
// not returned within timeout.
func WithTimeout(timeout time.Duration, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("operation timed out after %v", timeout)
	}
}
