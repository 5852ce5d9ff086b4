package worker

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-uuid"
	"golang.org/x/sys/unix"

	"github.com/mina-go/node/syncerrors"
)

// Status is the coordinator's view of the external worker process
// (spec.md §7 "NotRunning | Idle | Busy | Broken").
type Status int

const (
	StatusNotRunning Status = iota
	StatusIdle
	StatusBusy
	StatusBroken
)

// readyTimeout bounds how long Start waits for the worker's readiness
// frame before declaring it Broken.
const readyTimeout = 5 * time.Second

// Result is one completed proof, a cancellation acknowledgement, or the
// error the worker reported for a job — the three PerformJob outcomes
// spec.md §6/§4.7 distinguishes (Ok(Some(proof)) | Ok(None) | Err(string)).
// Cancelled is set only for the second case, so a Cancel()-induced empty
// response is never mistaken for a genuine zero-length successful proof.
type Result struct {
	JobID     string
	Proof     []byte
	Cancelled bool
	Err       error
}

// Coordinator owns one external SNARK-worker subprocess: it frames work
// assignments onto the process' stdin, reads framed results off stdout,
// and forwards parsed stderr lines to the module logger, mirroring
// work/agent.go's single-goroutine-owns-mutable-state shape so Submit,
// Cancel, and Kill never race the result reader.
type Coordinator struct {
	mu     sync.Mutex
	status Status

	cmd    *exec.Cmd
	stdin  ioWriteCloser
	results chan Result

	currentJob string
}

type ioWriteCloser interface {
	Write(p []byte) (int, error)
	Close() error
}

// NewCoordinator returns a coordinator with no process attached yet.
func NewCoordinator() *Coordinator {
	return &Coordinator{status: StatusNotRunning, results: make(chan Result, 1)}
}

// Results returns the channel completed proofs (or per-job errors) arrive
// on; callers should range over it for the coordinator's lifetime.
func (c *Coordinator) Results() <-chan Result { return c.results }

// Start launches the worker binary and waits for its readiness frame
// (spec.md §7 "readiness handshake"). Start writes no request frame of its
// own; the first frame read from stdout within readyTimeout counts as ready
// whatever its length or content, and only a read error or the timeout
// marks the worker Broken.
func (c *Coordinator) Start(ctx context.Context, binPath string, args ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusNotRunning {
		return syncerrors.ErrWorkerNotRunning
	}

	cmd := exec.CommandContext(ctx, binPath, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	readyCh := make(chan error, 1)
	go func() {
		_, err := ReadFrame(stdout)
		readyCh <- err
	}()
	select {
	case err := <-readyCh:
		if err != nil {
			c.status = StatusBroken
			return err
		}
	case <-time.After(readyTimeout):
		c.status = StatusBroken
		return syncerrors.ErrWorkerBroken
	}

	c.cmd = cmd
	c.stdin = stdin
	c.status = StatusIdle

	go readStderr(stderr)
	go c.readResults(stdout)
	return nil
}

// readResults decodes each frame's typed PerformJob response and forwards
// exactly the outcome the worker reported — a proof, a cancellation, or an
// error — never collapsing Ok(None) into a zero-length Ok(Some(proof)).
func (c *Coordinator) readResults(stdout ioReader) {
	for {
		frame, err := ReadFrame(stdout)
		if err != nil {
			c.mu.Lock()
			c.status = StatusBroken
			job := c.currentJob
			c.mu.Unlock()
			if job != "" {
				c.results <- Result{JobID: job, Err: err}
			}
			return
		}
		kind, body, err := DecodeResponse(frame)
		if err != nil {
			c.mu.Lock()
			c.status = StatusBroken
			job := c.currentJob
			c.mu.Unlock()
			if job != "" {
				c.results <- Result{JobID: job, Err: err}
			}
			return
		}
		c.mu.Lock()
		job := c.currentJob
		c.currentJob = ""
		c.status = StatusIdle
		c.mu.Unlock()
		switch kind {
		case ResponseProof:
			c.results <- Result{JobID: job, Proof: body}
		case ResponseCancelled:
			c.results <- Result{JobID: job, Cancelled: true}
		case ResponseError:
			c.results <- Result{JobID: job, Err: errors.New(string(body))}
		default:
			c.results <- Result{JobID: job, Err: syncerrors.ErrWorkerBroken}
		}
	}
}

type ioReader interface {
	Read(p []byte) (int, error)
}

// Submit writes work to the worker's stdin as one frame, the raw bytes with
// no request tag in front, returning a fresh job id. Fails with syncerrors.ErrWorkerBusy if a job is already
// outstanding (spec.md §7 "one job in flight at a time").
func (c *Coordinator) Submit(work []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.status {
	case StatusNotRunning:
		return "", syncerrors.ErrWorkerNotRunning
	case StatusBroken:
		return "", syncerrors.ErrWorkerBroken
	case StatusBusy:
		return "", syncerrors.ErrWorkerBusy
	}

	jobID, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}
	if err := WriteFrame(c.stdin, work); err != nil {
		c.status = StatusBroken
		return "", err
	}
	c.currentJob = jobID
	c.status = StatusBusy
	return jobID, nil
}

// Cancel sends SIGINT to the worker process, the signal
// ext_snark_worker.rs uses to ask a proving job to abort cleanly rather
// than finish (spec.md §7 "Cancel").
func (c *Coordinator) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusNotRunning {
		return syncerrors.ErrWorkerNotRunning
	}
	if c.currentJob == "" {
		return syncerrors.ErrAlreadyCancelled
	}
	return c.cmd.Process.Signal(unix.SIGINT)
}

// Kill forcibly terminates the worker process (spec.md §7 "Kill").
func (c *Coordinator) Kill() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusNotRunning {
		return syncerrors.ErrAlreadyKilled
	}
	c.status = StatusNotRunning
	return c.cmd.Process.Kill()
}
