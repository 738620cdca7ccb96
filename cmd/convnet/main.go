// Package main provides the convnet CLI.
//
// Usage:
//
//	convnet summary -config arch.yaml
//	convnet forward -config arch.yaml [-weights model.safetensors] [-batch 2]
//	convnet save -config arch.yaml -out model.safetensors
//	convnet version
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/config"
	"github.com/born-ml/convnet/internal/models"
	"github.com/born-ml/convnet/internal/rng"
	"github.com/born-ml/convnet/internal/tensor"
)

const version = "v0.1.0"

func usage() {
	fmt.Fprintln(os.Stderr, "convnet - convolutional image classifiers")
	fmt.Fprintf(os.Stderr, "Version: %s\n\n", version)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  summary    Print the layer table of a configured model")
	fmt.Fprintln(os.Stderr, "  forward    Run a random batch through a model and print the scores")
	fmt.Fprintln(os.Stderr, "  save       Initialize a model and write its weights")
	fmt.Fprintln(os.Stderr, "  version    Show version")
}

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "summary":
		runSummary(args)
	case "forward":
		runForward(args)
	case "save":
		runSave(args)
	case "version":
		fmt.Printf("convnet %s\n", version)
	default:
		usage()
		os.Exit(2)
	}
}

// build loads the config at path and constructs its classifier.
func build(path string) (*config.Config, *models.Classifier[*cpu.CPUBackend]) {
	if path == "" {
		log.Fatal("missing -config")
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Seed != nil {
		rng.Seed(*cfg.Seed)
	}

	spec, err := cfg.Architecture()
	if err != nil {
		log.Fatalf("Invalid architecture: %v", err)
	}
	builder, err := cfg.StageBuilder()
	if err != nil {
		log.Fatalf("Invalid architecture: %v", err)
	}
	model, err := models.NewClassifier(spec, builder, cpu.New())
	if err != nil {
		log.Fatalf("Failed to build model: %v", err)
	}
	return cfg, model
}

func runSummary(args []string) {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	configPath := fs.String("config", "", "Architecture YAML file")
	verbose := fs.Bool("v", false, "Also print the config and the layer tree")
	_ = fs.Parse(args)

	cfg, model := build(*configPath)
	if *verbose {
		fmt.Println(cfg)
		fmt.Println()
		fmt.Println(model)
		fmt.Println()
	}
	if err := model.Summary(os.Stdout); err != nil {
		log.Fatalf("Failed to write summary: %v", err)
	}
}

func runForward(args []string) {
	fs := flag.NewFlagSet("forward", flag.ExitOnError)
	configPath := fs.String("config", "", "Architecture YAML file")
	weights := fs.String("weights", "", "SafeTensors weights to load (default: fresh initialization)")
	batch := fs.Int("batch", 1, "Number of random inputs")
	_ = fs.Parse(args)

	if *batch <= 0 {
		log.Fatalf("-batch must be positive, got %d", *batch)
	}
	_, model := build(*configPath)
	if *weights != "" {
		if err := models.LoadWeights(*weights, model); err != nil {
			log.Fatalf("Failed to load weights: %v", err)
		}
	}

	in := model.Spec().InSize
	data := make([]float32, *batch*in[0]*in[1]*in[2])
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	x, err := tensor.FromSlice(data, tensor.Shape{*batch, in[0], in[1], in[2]}, model.Backend())
	if err != nil {
		log.Fatalf("Failed to create input: %v", err)
	}

	logits := model.Forward(x)
	classes := logits.Shape()[1]
	scores := logits.Data()
	for n := range *batch {
		row := scores[n*classes : (n+1)*classes]
		best := 0
		for k, v := range row {
			if v > row[best] {
				best = k
			}
		}
		fmt.Printf("sample %d: class %d scores %v\n", n, best, row)
	}
}

func runSave(args []string) {
	fs := flag.NewFlagSet("save", flag.ExitOnError)
	configPath := fs.String("config", "", "Architecture YAML file")
	out := fs.String("out", "model.safetensors", "Output file")
	_ = fs.Parse(args)

	_, model := build(*configPath)
	if err := models.SaveWeights(*out, model); err != nil {
		log.Fatalf("Failed to save weights: %v", err)
	}
	fmt.Printf("Saved %d parameters to %s\n", model.NumParameters(), *out)
}
