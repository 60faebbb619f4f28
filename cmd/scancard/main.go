package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/virajbhatt/cardintel/constants"
	"github.com/virajbhatt/cardintel/internal/dedupe"
	"github.com/virajbhatt/cardintel/internal/entity"
	"github.com/virajbhatt/cardintel/internal/extract"
	"github.com/virajbhatt/cardintel/internal/extract/vision"
	"github.com/virajbhatt/cardintel/internal/llm"
	"github.com/virajbhatt/cardintel/internal/llm/gemini"
	"github.com/virajbhatt/cardintel/internal/pipeline"
	"github.com/virajbhatt/cardintel/internal/quota"
)

// scancard runs one extraction against the live providers without a
// database: no rate limiting, no ledger writes, no duplicate lookups.
// Useful for checking API keys and prompt output from a shell.
//
// Usage: scancard <front-image> [back-image]
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: scancard <front-image> [back-image]")
		os.Exit(2)
	}

	front, err := describeImage(os.Args[1], constants.SideFront)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var back *pipeline.CardImage
	if len(os.Args) == 3 {
		back, err = describeImage(os.Args[2], constants.SideBack)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	extractor := extract.NewCardExtractor(vision.NewClient(vision.Config{}, logger), logger)
	parser := llm.NewCardParser(gemini.NewClient(gemini.Config{}, logger), logger)
	engine := dedupe.NewEngine(emptyDirectory{}, logger)

	proc := pipeline.NewProcessor(allowAll{}, extractor, parser, engine, discardLedger{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	result, err := proc.Process(ctx, pipeline.Request{
		RequesterID: "scancard",
		Front:       front,
		Back:        back,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if result.Status != pipeline.StatusSuccess {
		os.Exit(1)
	}
}

// describeImage copies the source file into a temp path so the pipeline's
// cleanup does not delete the caller's original.
func describeImage(path string, side constants.ImageSide) (*pipeline.CardImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s image: %w", side, err)
	}
	ext := constants.NormalizeExt(filepath.Ext(path))
	tmp, err := os.CreateTemp("", "scancard-*."+ext)
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	contentType := "image/jpeg"
	if ext == "png" {
		contentType = "image/png"
	}
	return &pipeline.CardImage{
		Path:        tmp.Name(),
		Size:        int64(len(data)),
		ContentType: contentType,
		Side:        side,
	}, nil
}

type allowAll struct{}

func (allowAll) CheckAllLimits(ctx context.Context, requesterID string) quota.Decision {
	return quota.Decision{Allowed: true}
}

type discardLedger struct{}

func (discardLedger) Append(ctx context.Context, rec *entity.UsageRecord) error { return nil }

type emptyDirectory struct{}

func (emptyDirectory) ListActive(ctx context.Context) ([]entity.ClientRecord, error) {
	return nil, nil
}
