// Package worker coordinates one external SNARK-proving subprocess over
// framed stdio, grounded on original_source's ext_snark_worker.rs command
// process and carrying the teacher's channel-owns-state idiom from
// work/agent.go into a non-mining context (spec.md C7).
package worker

import (
	"encoding/binary"
	"io"

	"github.com/mina-go/node/log"
	"github.com/mina-go/node/syncerrors"
)

var logger = log.NewModuleLogger(log.SnarkWorker)

// maxFrameBytes bounds a single frame so a corrupt or malicious worker
// process cannot force an unbounded allocation (spec.md §1 "subprocess
// I/O consumed as a black-box capability" still has to defend this
// boundary even though it trusts the message contents).
const maxFrameBytes = 64 << 20

// WriteFrame writes payload as a u64-little-endian length prefix followed
// by the payload bytes (spec.md §7 "External worker wire format").
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed frame from r.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])
	if n > maxFrameBytes {
		return nil, syncerrors.ErrWorkerBroken
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ResponseKind tags which of PerformJob's three outcomes a frame carries
// (spec.md §6/§4.7 "Ok(Some(proof)) | Ok(None) | Err(string)"): a worker
// that finishes a proof reports ResponseProof, one whose job was cancelled
// reports ResponseCancelled with an empty body, and one that hit an
// internal error reports ResponseError with a UTF-8 message.
type ResponseKind byte

const (
	ResponseProof ResponseKind = iota
	ResponseCancelled
	ResponseError
)

// EncodeResponse frames one typed PerformJob response as a tag byte
// followed by body (the proof bytes, or the error message; empty for
// ResponseCancelled).
func EncodeResponse(kind ResponseKind, body []byte) []byte {
	buf := make([]byte, 1+len(body))
	buf[0] = byte(kind)
	copy(buf[1:], body)
	return buf
}

// DecodeResponse splits a frame produced by EncodeResponse back into its
// kind and body. A frame too short to carry a tag byte is malformed — a
// conforming worker always writes at least the tag — and is reported as
// syncerrors.ErrWorkerBroken rather than silently treated as a proof.
func DecodeResponse(frame []byte) (ResponseKind, []byte, error) {
	if len(frame) < 1 {
		return 0, nil, syncerrors.ErrWorkerBroken
	}
	if len(frame) == 1 {
		return ResponseKind(frame[0]), nil, nil
	}
	return ResponseKind(frame[0]), frame[1:], nil
}
