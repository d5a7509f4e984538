package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/simheat/pkg/observability"
)

// Spinner animates a progress line on stderr until stopped or until its
// context is cancelled.
type Spinner struct {
	out     io.Writer
	message string
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	mu      sync.Mutex
}

// newSpinner creates a new spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		message: message,
		parent:  ctx,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		i := 0
		for {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				frame := s.frames[i%len(s.frames)]
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
				s.mu.Unlock()
				i++
			}
		}
	}()
}

// SetMessage replaces the message shown next to the spinner.
func (s *Spinner) SetMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
	s.message = msg
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// stageHooks relabels a spinner as the pipeline moves through its stages and
// forwards every event to the hooks it wraps.
type stageHooks struct {
	observability.PipelineHooks
	spinner *Spinner
	name    string
}

func (h stageHooks) OnLoadStart(ctx context.Context, source string) {
	h.spinner.SetMessage("Loading " + h.name)
	h.PipelineHooks.OnLoadStart(ctx, source)
}

func (h stageHooks) OnClusterStart(ctx context.Context, method string, size int) {
	h.spinner.SetMessage(fmt.Sprintf("Clustering %s (%d×%d, %s)", h.name, size, size, method))
	h.PipelineHooks.OnClusterStart(ctx, method, size)
}

func (h stageHooks) OnRenderStart(ctx context.Context, backend string, formats []string) {
	h.spinner.SetMessage(fmt.Sprintf("Rendering %s (%s)", h.name, strings.Join(formats, ", ")))
	h.PipelineHooks.OnRenderStart(ctx, backend, formats)
}

// trackStages installs stageHooks for s and returns a func restoring the
// previous pipeline hooks.
func trackStages(s *Spinner, name string) (restore func()) {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(stageHooks{PipelineHooks: prev, spinner: s, name: name})
	return func() { observability.SetPipelineHooks(prev) }
}
