package repair

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
)

// Sink receives batch progress. Its methods are only ever called from the
// goroutine running Batch.Run, one at a time.
type Sink interface {
	Started(total int)
	FileDone(result Result, completed, total int)
	Done(summary Summary)
}

type discardSink struct{}

func (discardSink) Started(int)               {}
func (discardSink) FileDone(Result, int, int) {}
func (discardSink) Done(Summary)              {}

// LogSink writes the status lines of a batch to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Started(total int) {
	s.Logger.Info(fmt.Sprintf("Repairing %d file(s)...", total))
}

func (s LogSink) FileDone(res Result, completed, total int) {
	progress := slog.Int("progress", percent(completed, total))
	name := slog.String("file", filepath.Base(res.Path))

	if !res.OK() {
		var fe *FileError
		if errors.As(res.Err, &fe) {
			s.Logger.Warn(fe.Error(), name, progress)
		} else {
			s.Logger.Warn(fmt.Sprintf("Error during repair of %s: %v", res.Path, res.Err), name, progress)
		}
		return
	}

	s.Logger.Info("Repaired file saved to: "+res.Output, name, progress)
	for i, line := range res.Report.Lines() {
		if i == 0 {
			s.Logger.Info(line, name)
			continue
		}
		s.Logger.Warn(line, name)
	}
	if res.CameraMismatch {
		s.Logger.Warn("Camera differs from reference; header may not match", name, slog.String("camera", res.Camera.String()))
	}
	s.Logger.Debug("repaired",
		name,
		slog.Int("source_bytes", res.SourceSize),
		slog.Int("repaired_bytes", res.RepairedSize),
		slog.String("blake3", res.Digest.String()))
}

func (s LogSink) Done(sum Summary) {
	if sum.Cancelled {
		s.Logger.Warn("Repair cancelled.", slog.Int("skipped", sum.Skipped))
	}
	s.Logger.Info("Repair process completed.",
		slog.Int("repaired", sum.Repaired),
		slog.Int("failed", sum.Failed),
		slog.Int("total", sum.Total))
}

func percent(completed, total int) int {
	if total == 0 {
		return 100
	}
	return completed * 100 / total
}
