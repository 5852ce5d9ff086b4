package worker

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mina-go/node/syncerrors"
)

// TestSubmitRejectsWhenNotRunning and the tests below exercise the
// coordinator's state machine directly, without spawning a real worker
// subprocess (spec.md S6 covers the Idle/Busy/Broken transitions; standing
// up an actual external process is exercised at the integration level,
// outside this package's unit tests).
func TestSubmitRejectsWhenNotRunning(t *testing.T) {
	c := NewCoordinator()
	_, err := c.Submit([]byte("work"))
	assert.True(t, errors.Is(err, syncerrors.ErrWorkerNotRunning))
}

func TestCancelRejectsWhenNotRunning(t *testing.T) {
	c := NewCoordinator()
	assert.True(t, errors.Is(c.Cancel(), syncerrors.ErrWorkerNotRunning))
}

func TestKillRejectsWhenAlreadyNotRunning(t *testing.T) {
	c := NewCoordinator()
	assert.True(t, errors.Is(c.Kill(), syncerrors.ErrAlreadyKilled))
}

func TestSubmitRejectsWhenBusy(t *testing.T) {
	c := NewCoordinator()
	c.status = StatusBusy
	_, err := c.Submit([]byte("work"))
	assert.True(t, errors.Is(err, syncerrors.ErrWorkerBusy))
}

func TestCancelRejectsWithNoOutstandingJob(t *testing.T) {
	c := NewCoordinator()
	c.status = StatusIdle
	assert.True(t, errors.Is(c.Cancel(), syncerrors.ErrAlreadyCancelled))
}

// TestReadResultsDistinguishesCancelledFromEmptyProof covers spec.md S6: a
// Cancel()-induced Ok(None) response must surface as Result.Cancelled, not
// as an indistinguishable zero-length successful proof.
func TestReadResultsDistinguishesCancelledFromEmptyProof(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, EncodeResponse(ResponseCancelled, nil)))

	c := NewCoordinator()
	c.status = StatusBusy
	c.currentJob = "job-1"
	c.readResults(&buf)

	result := <-c.Results()
	assert.Equal(t, "job-1", result.JobID)
	assert.True(t, result.Cancelled)
	assert.NoError(t, result.Err)
	assert.Empty(t, result.Proof)
}

// TestReadResultsSurfacesWorkerReportedError covers the Err(string) variant:
// a worker-reported failure must reach Result.Err, not just a transport
// read failure.
func TestReadResultsSurfacesWorkerReportedError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, EncodeResponse(ResponseError, []byte("proving failed"))))

	c := NewCoordinator()
	c.status = StatusBusy
	c.currentJob = "job-2"
	c.readResults(&buf)

	result := <-c.Results()
	assert.Equal(t, "job-2", result.JobID)
	assert.False(t, result.Cancelled)
	require.Error(t, result.Err)
	assert.Equal(t, "proving failed", result.Err.Error())
}

func TestReadResultsSurfacesGenuineProof(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, EncodeResponse(ResponseProof, []byte("the proof"))))

	c := NewCoordinator()
	c.status = StatusBusy
	c.currentJob = "job-3"
	c.readResults(&buf)

	result := <-c.Results()
	assert.Equal(t, "job-3", result.JobID)
	assert.False(t, result.Cancelled)
	assert.NoError(t, result.Err)
	assert.Equal(t, []byte("the proof"), result.Proof)
}
