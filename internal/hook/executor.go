package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"time"
)

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 5 * time.Second

// Executor runs hooks with a timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an executor. A non-positive timeout uses
// DefaultTimeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{timeout: timeout}
}

// Execute runs h with req on stdin and parses its stdout.
func (e *Executor) Execute(ctx context.Context, h *Hook, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if req.Config == nil {
		req.Config = h.Manifest.Config
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, h.Executable)
	cmd.Dir = h.Path
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("hook %s: timeout after %v", h.Manifest.Name, e.timeout)
	}
	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("hook %s failed: %w, stderr: %s", h.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("hook %s failed: %w", h.Manifest.Name, err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("hook %s: parse response: %w, stdout: %s", h.Manifest.Name, err, stdout.String())
	}
	return &resp, nil
}

// Dispatcher fans events out to subscribed hooks in the background.
// Failures are logged and never reach the caller.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	wg       sync.WaitGroup
}

// NewDispatcher wires a manager to an executor.
func NewDispatcher(m *Manager, e *Executor) *Dispatcher {
	return &Dispatcher{manager: m, executor: e}
}

// Dispatch starts every hook subscribed to req.Event and returns at once.
func (d *Dispatcher) Dispatch(req Request) {
	for _, h := range d.manager.For(req.Event) {
		d.wg.Add(1)
		go func(h *Hook) {
			defer d.wg.Done()
			resp, err := d.executor.Execute(context.Background(), h, req)
			switch {
			case err != nil:
				log.Printf("hook %s: %v", h.Manifest.Name, err)
			case !resp.Success:
				log.Printf("hook %s reported failure: %s", h.Manifest.Name, resp.Error)
			}
		}(h)
	}
}

// Wait blocks until all dispatched hooks have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
