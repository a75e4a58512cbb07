package ui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a one-line progress indicator while `create` waits on the
// model. The CLI points it at stderr.
type Spinner struct {
	out   io.Writer
	label string
	every time.Duration

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{out: w, label: label, every: 100 * time.Millisecond}
}

// Start is a no-op while the spinner is already running.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.loop(s.done)
}

func (s *Spinner) loop(done <-chan struct{}) {
	defer s.wg.Done()
	tick := time.NewTicker(s.every)
	defer tick.Stop()

	for frame := 0; ; frame = (frame + 1) % len(spinnerFrames) {
		select {
		case <-done:
			return
		case <-tick.C:
			fmt.Fprintf(s.out, "\r%s %s", StylePrimary.Render(spinnerFrames[frame]), s.label)
		}
	}
}

// Stop erases the spinner line. Calling it on a stopped spinner does nothing.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
	fmt.Fprint(s.out, "\r\033[K")
}
