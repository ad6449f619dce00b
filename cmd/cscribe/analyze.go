package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe-go/internal/cache"
	apperrors "github.com/codescribe/codescribe-go/internal/errors"
	"github.com/codescribe/codescribe-go/internal/extract"
	"github.com/codescribe/codescribe-go/internal/graph"
	"github.com/codescribe/codescribe-go/internal/lang"
	"github.com/codescribe/codescribe-go/internal/llm"
	"github.com/codescribe/codescribe-go/internal/model"
	"github.com/codescribe/codescribe-go/internal/orchestrator"
	"github.com/codescribe/codescribe-go/internal/report"
)

var (
	analyzeOutput  string
	analyzeWorkers int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [directory]",
	Short: "Analyze a source tree and generate project documentation",
	Long: `Analyze walks a directory, extracts code models from Java, Kotlin,
and XML files, links them into a dependency graph, and sends uncached
files to the analysis service.

Examples:
  cscribe analyze ./app/src
  cscribe analyze ./app/src --output docs.md --workers 8`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write markdown report to file (default: stdout)")
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "workers", "w", 0, "concurrent analysis workers (default: from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	root := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	adapter := extract.NewAdapter()
	builder := graph.NewBuilder()

	var inputs []orchestrator.Input
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !lang.IsSource(path) {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("Skipping unreadable file")
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		in := orchestrator.Input{
			Path:        rel,
			Fingerprint: model.ComputeFingerprint(content, extract.Version, svc.Model()),
		}
		fileModel, err := adapter.Extract(ctx, rel, content)
		if err != nil {
			// Unparseable files stay in the run with an empty model so
			// the report lists them instead of silently dropping them.
			logger.WithError(err).WithField("path", rel).Warn("Extraction failed")
			fileModel = &model.FileEntity{Path: rel, Language: lang.Detect(rel)}
			in.ErrorKind = apperrors.KindOf(err)
		}
		builder.AddFile(fileModel)
		in.Model = fileModel
		inputs = append(inputs, in)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no Java, Kotlin, or XML sources found under %s", root)
	}

	logger.WithFields(map[string]interface{}{
		"files": len(inputs),
		"edges": builder.EdgeCount(),
	}).Info("Extraction complete")

	workers := cfg.Analysis.Workers
	if analyzeWorkers > 0 {
		workers = analyzeWorkers
	}
	orch := orchestrator.New(builder, store, svc, orchestrator.Options{
		Workers:        workers,
		CallTimeout:    cfg.Analysis.CallTimeout,
		MaxRetries:     cfg.Analysis.MaxRetries,
		RetryBaseDelay: cfg.Analysis.RetryBaseWait,
		ContextItems:   cfg.Analysis.ContextItems,
	})

	results := orch.Run(ctx, inputs)
	project := report.Assemble(results, builder, svc.Model())
	rendered := report.RenderMarkdown(project)

	if analyzeOutput != "" {
		if err := os.WriteFile(analyzeOutput, []byte(rendered), 0644); err != nil {
			return apperrors.FileSystemError(err, "write report")
		}
		logger.WithField("path", analyzeOutput).Info("Report written")
	} else {
		fmt.Print(rendered)
	}

	logger.WithFields(map[string]interface{}{
		"analyzed": len(project.Files),
		"failed":   len(project.Failed),
		"duration": time.Since(startTime).Round(time.Millisecond).String(),
	}).Info("Analysis complete")

	if ctx.Err() != nil {
		return fmt.Errorf("analysis interrupted, partial report produced")
	}
	return nil
}

// openStore opens the configured cache, falling back to memory-only
// when persistence is disabled.
func openStore() (*cache.Store, error) {
	path := cfg.CachePath()
	if path == "" {
		return cache.NewStore(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.FileSystemError(err, "create cache directory")
	}
	return cache.Open(path)
}
