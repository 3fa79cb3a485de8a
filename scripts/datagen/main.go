package main

import (
	"FlowSentinel/internal/dataset"
	"FlowSentinel/internal/model"
	"flag"
	"math"
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// profile holds one distribution per feature column, in model.FeatureNames order.
type profile [model.NumFeatures]distuv.Rander

func normal(mu, sigma float64, src rand.Source) distuv.Rander {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: src}
}

func exponential(mean float64, src rand.Source) distuv.Rander {
	return distuv.Exponential{Rate: 1 / mean, Src: src}
}

func benign(src rand.Source) profile {
	return profile{
		normal(500, 100, src),
		normal(50000, 10000, src),
		exponential(30, src),
		normal(1000, 200, src),
		normal(2000, 500, src),
		normal(20, 5, src),
		exponential(60, src),
	}
}

func malicious(src rand.Source) profile {
	return profile{
		normal(2000, 500, src),
		normal(200000, 50000, src),
		exponential(120, src),
		normal(800, 150, src),
		normal(5000, 1000, src),
		normal(50, 15, src),
		exponential(300, src),
	}
}

func sample(p profile, n, label int) []model.LabeledSample {
	out := make([]model.LabeledSample, n)
	for i := range out {
		features := make([]float64, model.NumFeatures)
		for j, dist := range p {
			// Normal draws can go negative; the feature schema cannot.
			features[j] = math.Abs(dist.Rand())
		}
		out[i] = model.LabeledSample{Features: features, Label: label}
	}
	return out
}

func main() {
	outputFile := flag.String("o", "sample_network_traffic.csv", "Output CSV path")
	benignCount := flag.Int("benign", 1000, "Number of benign rows")
	maliciousCount := flag.Int("malicious", 300, "Number of malicious rows")
	seed := flag.Uint64("seed", 42, "Random seed")
	flag.Parse()

	src := rand.NewSource(*seed)
	rows := append(sample(benign(src), *benignCount, model.LabelBenign), sample(malicious(src), *maliciousCount, model.LabelMalicious)...)

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	if err := dataset.Write(f, rows); err != nil {
		log.Fatalf("Failed to write dataset: %v", err)
	}
	log.Printf("Sample dataset saved to %s", *outputFile)

	summary, err := dataset.Describe(rows)
	if err != nil {
		log.Fatalf("Failed to describe dataset: %v", err)
	}
	summary.Render(os.Stdout)
}
