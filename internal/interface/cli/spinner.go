package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// spinner animates on stderr while a model or transcription call runs
type spinner struct {
	writer  io.Writer
	message string
	stop    chan struct{}
	wg      sync.WaitGroup
}

func newSpinner(message string) *spinner {
	return &spinner{
		writer:  os.Stderr,
		message: message,
		stop:    make(chan struct{}),
	}
}

func (s *spinner) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i = (i + 1) % len(frames) {
			fmt.Fprintf(s.writer, "\r%s %s", frames[i], metaStyle.Render(s.message))
			select {
			case <-s.stop:
				fmt.Fprintf(s.writer, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop clears the line; it must be called exactly once
func (s *spinner) Stop() {
	close(s.stop)
	s.wg.Wait()
}
