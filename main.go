package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	flag "github.com/spf13/pflag"

	"github.com/gdegoulet/jpeg-header-repair/internal/config"
	"github.com/gdegoulet/jpeg-header-repair/internal/repair"
)

var Version = "dev"

type FileOutput struct {
	Input      string   `json:"input"`
	Output     string   `json:"output,omitempty"`
	Status     string   `json:"status"`
	SizeBefore int      `json:"size_before_bytes"`
	SizeAfter  int      `json:"size_after_bytes,omitempty"`
	Entropy    float64  `json:"entropy"`
	Flags      []string `json:"flags,omitempty"`
	Camera     string   `json:"camera,omitempty"`
	BLAKE3     string   `json:"blake3,omitempty"`
	Error      string   `json:"error,omitempty"`
}

type FinalOutput struct {
	Status        string       `json:"status"`
	Reference     string       `json:"reference"`
	HeaderBytes   int          `json:"header_bytes"`
	HeaderBLAKE3  string       `json:"header_blake3"`
	Frame         string       `json:"frame,omitempty"`
	OutputRoot    string       `json:"output"`
	Total         int          `json:"total"`
	Repaired      int          `json:"repaired"`
	Failed        int          `json:"failed"`
	Skipped       int          `json:"skipped"`
	Workers       int          `json:"workers"`
	ExecutionTime string       `json:"execution_time"`
	Files         []FileOutput `json:"files"`
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, `{"error": "Invalid environment", "details": %q}`+"\n", err.Error())
		return 2
	}

	flag.StringVarP(&cfg.Repair.Reference, "reference", "r", cfg.Repair.Reference, "Known-good JPEG from the same camera and settings (required)")
	flag.StringVarP(&cfg.Repair.Output, "output", "o", cfg.Repair.Output, "Folder receiving repaired files")
	flag.IntVarP(&cfg.Repair.Workers, "workers", "j", cfg.Repair.Workers, "Parallel repairs (0=number of CPUs)")
	flag.BoolVar(&cfg.Log.Debug, "debug", cfg.Log.Debug, "Debug mode")
	flag.BoolVarP(&cfg.Log.Quiet, "quiet", "q", cfg.Log.Quiet, "Quiet mode, no JSON summary")
	version := flag.Bool("version", false, "Show version")
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("jpeg-header-repair version %s\n", Version)
		return 0
	}
	if len(os.Args) < 2 {
		usage()
		return 0
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, `{"error": %q}`+"\n", err.Error())
		return 2
	}
	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, `{"error": "No corrupted files or folders given"}`+"\n")
		return 2
	}

	level := slog.LevelInfo
	if cfg.Log.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	startTime := time.Now()
	paths, batch, err := prepare(cfg, flag.Args(), repair.LogSink{Logger: logger})
	if err != nil {
		logger.Error(err.Error())
		return 2
	}
	logReference(logger, batch.Reference)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	summary := batch.Run(ctx, paths)
	duration := time.Since(startTime)
	var before, after int64
	for _, res := range summary.Results {
		before += int64(res.SourceSize)
		after += int64(res.RepairedSize)
	}
	logger.Debug("batch finished",
		"state", batch.State(),
		"read", formatSize(before),
		"written", formatSize(after),
		"duration", duration.Round(time.Millisecond).String())

	if !cfg.Log.Quiet {
		out := finalOutput(batch, summary, cfg.Repair.Workers, duration)
		jsonBytes, _ := json.Marshal(out)
		fmt.Println(string(jsonBytes))
	}

	if summary.Failed > 0 || summary.Cancelled {
		return 1
	}
	return 0
}

// prepare expands the positional arguments before the batch is created, so
// a bad argument leaves no output folder behind.
func prepare(cfg *config.Config, args []string, sink repair.Sink) ([]string, *repair.Batch, error) {
	paths, err := repair.Collect(args)
	if err != nil {
		return nil, nil, fmt.Errorf("collecting corrupted files: %w", err)
	}
	batch, err := repair.NewBatch(cfg.Repair.Reference, cfg.Repair.Output, cfg.Repair.Workers, sink)
	if err != nil {
		return nil, nil, fmt.Errorf("reference file %s: %w", cfg.Repair.Reference, err)
	}
	return paths, batch, nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `jpeg-header-repair - rebuild corrupted JPEG headers from a reference image

USAGE
    jpeg-header-repair --reference ref.jpg [flags] <folder|file>...

Every .jpg/.jpeg in the given folders (and every file given directly) gets
the header of the reference spliced onto its own scan data. Results are
written under the output folder with their original names.

FLAGS
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
ENVIRONMENT (also read from .env)
    JPEGREPAIR_REFERENCE  Reference JPEG
    JPEGREPAIR_OUTPUT     Output folder (default: Repaired)
    JPEGREPAIR_WORKERS    Parallel repairs
    JPEGREPAIR_DEBUG      Enable debug logging
    JPEGREPAIR_QUIET      Suppress the JSON summary
`)
}

func logReference(logger *slog.Logger, ref *repair.Reference) {
	attrs := []any{
		slog.String("path", ref.Path),
		slog.Int("header_bytes", len(ref.Header)),
		slog.String("blake3", ref.Fingerprint.Short()),
	}
	if ref.FrameErr == nil {
		attrs = append(attrs, slog.String("frame", ref.Frame.String()))
	}
	if ref.Camera.Known() {
		attrs = append(attrs, slog.String("camera", ref.Camera.String()))
	}
	logger.Info("Reference loaded", attrs...)
	for _, w := range ref.Warnings() {
		logger.Warn(w)
	}
}

func finalOutput(batch *repair.Batch, summary repair.Summary, workers int, duration time.Duration) FinalOutput {
	ref := batch.Reference
	out := FinalOutput{
		Status:        status(summary),
		Reference:     ref.Path,
		HeaderBytes:   len(ref.Header),
		HeaderBLAKE3:  ref.Fingerprint.String(),
		OutputRoot:    batch.OutputRoot,
		Total:         summary.Total,
		Repaired:      summary.Repaired,
		Failed:        summary.Failed,
		Skipped:       summary.Skipped,
		Workers:       workers,
		ExecutionTime: duration.Round(time.Millisecond).String(),
		Files:         make([]FileOutput, 0, len(summary.Results)),
	}
	if ref.FrameErr == nil {
		out.Frame = ref.Frame.String()
	}

	for _, res := range summary.Results {
		f := FileOutput{
			Input:      res.Path,
			SizeBefore: res.SourceSize,
		}
		if !res.OK() {
			f.Status = "FAILED"
			f.Error = res.Err.Error()
			var fe *repair.FileError
			if errors.As(res.Err, &fe) && fe.Output != "" {
				f.Output = fe.Output
			}
			out.Files = append(out.Files, f)
			continue
		}
		f.Status = "REPAIRED"
		if !res.Report.OK() {
			f.Status = "REPAIRED_WITH_WARNINGS"
		}
		f.Output = res.Output
		f.SizeAfter = res.RepairedSize
		f.Entropy = res.Report.Entropy
		f.Flags = res.Report.Flags.Names()
		f.BLAKE3 = res.Digest.String()
		if res.Camera.Known() {
			f.Camera = res.Camera.String()
		}
		if res.CameraMismatch {
			f.Flags = append(f.Flags, "camera_mismatch")
		}
		out.Files = append(out.Files, f)
	}
	return out
}

func status(summary repair.Summary) string {
	switch {
	case summary.Cancelled:
		return "CANCELLED"
	case summary.Failed == 0:
		return "SUCCESS"
	case summary.Repaired == 0:
		return "FAILED"
	}
	return "PARTIAL"
}

func formatSize(size int64) string {
	if size >= 1048576 {
		return fmt.Sprintf("%.2f MB", float64(size)/1048576)
	}
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}
