package main

import (
	"FlowSentinel/internal/config"
	"FlowSentinel/internal/dataset"
	"FlowSentinel/internal/engine/manager"
	"FlowSentinel/internal/model"
	"FlowSentinel/internal/pipeline"
	"FlowSentinel/internal/sink"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var classifyPaths stringList
	configPath := flag.String("config", "configs/config.yaml", "Path to the YAML configuration")
	trainPath := flag.String("train", "", "Train a model from a labeled feature CSV")
	describe := flag.Bool("describe", false, "Print dataset statistics before training")
	saveModel := flag.String("save-model", "", "Where to save the trained model (defaults to model_store.model_path)")
	modelPath := flag.String("model", "", "Model to load for classification (defaults to model_store.model_path)")
	flag.Var(&classifyPaths, "classify", "Capture to classify (repeatable; extra arguments are classified too)")
	extractPath := flag.String("extract", "", "Extract flow features from a capture")
	label := flag.Int("label", -1, "Label (0 benign, 1 malicious) attached to extracted rows")
	outPath := flag.String("out", "", "CSV written by -extract (defaults to stdout)")
	flag.Parse()
	classifyPaths = append(classifyPaths, flag.Args()...)

	if *trainPath == "" && *extractPath == "" && len(classifyPaths) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := loadConfig(*configPath)
	p, closeStore, err := pipeline.FromConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}
	defer closeStore()

	if *extractPath != "" {
		if err := extract(p, *extractPath, *label, *outPath); err != nil {
			log.Fatalf("Feature extraction failed: %v", err)
		}
	}

	if *trainPath != "" {
		target := *saveModel
		if target == "" {
			target = cfg.ModelStore.ModelPath
		}
		if err := train(p, *trainPath, target, *describe); err != nil {
			log.Fatalf("Training failed: %v", err)
		}
	}

	if len(classifyPaths) > 0 {
		if !p.Ready() {
			source := *modelPath
			if source == "" {
				source = cfg.ModelStore.ModelPath
			}
			if err := p.Load(source); err != nil {
				log.Fatalf("No model available (train with -train or pass -model): %v", err)
			}
		}
		if !classify(cfg, p, classifyPaths) {
			os.Exit(1)
		}
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		log.Printf("No configuration at %s, using defaults.", path)
	} else if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	} else {
		log.Println("Configuration loaded successfully.")
	}
	if err := config.ApplyLogging(cfg.Logging); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	return cfg
}

func train(p *pipeline.Pipeline, csvPath, target string, describe bool) error {
	rows, err := dataset.LoadFile(csvPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d rows from '%s'.", len(rows), csvPath)

	if describe && len(rows) > 0 {
		summary, err := dataset.Describe(rows)
		if err != nil {
			return err
		}
		summary.Render(os.Stdout)
	}

	if _, err := p.Train(rows); err != nil {
		return err
	}
	return p.Save(target)
}

func extract(p *pipeline.Pipeline, capturePath string, label int, outPath string) error {
	if label != model.LabelBenign && label != model.LabelMalicious {
		return fmt.Errorf("-label must be 0 or 1 when extracting")
	}
	flows, err := p.ExtractFile(capturePath)
	if err != nil {
		return err
	}
	if len(flows) == 0 {
		fmt.Println(pipeline.NoFeaturesMessage)
		return nil
	}

	samples := make([]model.LabeledSample, 0, len(flows))
	for _, f := range flows {
		samples = append(samples, model.LabeledSample{Features: f.Features.Values(), Label: label})
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := dataset.Write(w, samples); err != nil {
		return err
	}
	log.Printf("Extracted %d flows from '%s'.", len(flows), capturePath)
	return nil
}

// classify prints a verdict block per capture and reports whether every capture succeeded.
func classify(cfg *config.Config, p *pipeline.Pipeline, paths []string) bool {
	writers, err := sink.New(cfg.Sinks)
	if err != nil {
		log.Fatalf("Failed to create verdict sinks: %v", err)
	}
	defer writers.Close()

	m, err := manager.NewManager(cfg.Manager, p, writers)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	return printResults(os.Stdout, os.Stderr, m.Run(context.Background(), paths), len(paths) > 1)
}

// printResults writes a verdict block per capture. It reports false when any
// capture failed to analyze or its verdicts could not be exported.
func printResults(out, errOut io.Writer, results []manager.Result, titled bool) bool {
	ok := true
	for _, res := range results {
		if titled {
			fmt.Fprintf(out, "== %s ==\n", res.Path)
		}
		if res.Err != nil {
			fmt.Fprintf(errOut, "Error analyzing %s: %v\n", res.Path, res.Err)
			ok = false
			continue
		}
		if len(res.Verdicts) == 0 {
			fmt.Fprintln(out, pipeline.NoFeaturesMessage)
		}
		for _, v := range res.Verdicts {
			if len(res.Verdicts) > 1 {
				fmt.Fprintf(out, "Flow: %s\n", v.Key)
			}
			fmt.Fprintf(out, "Traffic Classification: %s\n", model.LabelName(v.Result.Label))
			fmt.Fprintf(out, "Confidence: %.2f\n", v.Result.Confidence)
		}
		if res.SinkErr != nil {
			fmt.Fprintf(errOut, "Error exporting verdicts for %s: %v\n", res.Path, res.SinkErr)
			ok = false
		}
	}
	return ok
}
