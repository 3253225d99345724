// Package osbfengine wires hashing, tokenizing, feature generation, and the
// bucket table together into the four classifier operations: train,
// classify, import, and statistics (§4.7-§4.10).
package osbfengine

import (
	"fmt"

	"github.com/osbfgo/osbf/pkg/classstore"
)

// Engine owns the set of classes a process has open, keyed by filename.
// Opening the same filename with usage no higher than the cached class's
// usage reuses that class with its scratch state reset; opening with a
// higher usage closes and reopens it (§3's "Class cache").
type Engine struct {
	classes map[string]*classstore.Class
}

// New returns an Engine with no classes open yet.
func New() *Engine {
	return &Engine{classes: make(map[string]*classstore.Class)}
}

// Open returns the class for filename, opening or reopening it as needed.
func (e *Engine) Open(filename string, usage classstore.Usage, initialBuckets uint32, opts classstore.Options) (*classstore.Class, error) {
	if c, ok := e.classes[filename]; ok {
		if usage <= c.Usage() {
			c.ResetScratch()
			return c, nil
		}
		if err := c.Close(); err != nil {
			return nil, fmt.Errorf("osbfengine: closing %s to reopen at higher usage: %w", filename, err)
		}
		delete(e.classes, filename)
	}

	c, err := classstore.Open(filename, usage, initialBuckets, opts)
	if err != nil {
		return nil, err
	}
	e.classes[filename] = c
	return c, nil
}

// Close closes every class the engine has open, collecting (not stopping
// on) the first error encountered.
func (e *Engine) Close() error {
	var firstErr error
	for filename, c := range e.classes {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("osbfengine: closing %s: %w", filename, err)
		}
		delete(e.classes, filename)
	}
	return firstErr
}
