// Package monitoring routes diagnostic output of the location tools.
package monitoring

import (
	"log"
	"sync"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil sets a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Redirect swaps the logger like SetLogger and returns a function that
// restores the previous one.
func Redirect(f func(format string, v ...interface{})) (restore func()) {
	prev := Logf
	SetLogger(f)
	return func() { Logf = prev }
}

// Warnf logs a recoverable problem, such as an input file or segment that
// was skipped.
func Warnf(format string, v ...interface{}) {
	Logf("warning: "+format, v...)
}

// Progress logs a running count of finished inputs. It is safe for
// concurrent use.
type Progress struct {
	Label string
	Total int

	mu   sync.Mutex
	done int
}

// Step records one finished input and logs it.
func (p *Progress) Step(name string) {
	p.mu.Lock()
	p.done++
	done := p.done
	p.mu.Unlock()
	Logf("%s %d/%d: %s", p.Label, done, p.Total, name)
}

// Done returns the number of recorded steps.
func (p *Progress) Done() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}
