package worker

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// stderrLine is the JSON shape a well-behaved worker process emits on one
// line of stderr; anything that doesn't parse is logged verbatim instead
// of dropped (spec.md §7 "stderr lines are JSON, with a verbatim-warn
// fallback").
type stderrLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// readStderr drains r line by line until it is closed (the process exited
// or was killed), logging each line at the level it names or, for
// unparseable lines, at Warn with the raw text.
func readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var parsed stderrLine
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			logger.Warn("worker stderr", "line", line)
			continue
		}
		switch strings.ToLower(parsed.Level) {
		case "error", "crit":
			logger.Error("worker stderr", "msg", parsed.Message)
		case "warn":
			logger.Warn("worker stderr", "msg", parsed.Message)
		case "debug":
			logger.Debug("worker stderr", "msg", parsed.Message)
		default:
			logger.Info("worker stderr", "msg", parsed.Message)
		}
	}
}
