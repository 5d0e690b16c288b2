// Package main generates the Grafana dashboard and Prometheus rule files
// for skindex into the deploy directory.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/skindex/skindex/tools/dashgen/dashboards"
	"github.com/skindex/skindex/tools/dashgen/rules"
	"github.com/skindex/skindex/tools/dashgen/validate"
)

const generatedHeader = "# Generated by tools/dashgen. DO NOT EDIT.\n"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config, validateOnly bool) error {
	dash, err := dashboards.BuildOverview().Build()
	if err != nil {
		return fmt.Errorf("building dashboard: %w", err)
	}

	recording := rules.RecordingRules()
	alerts := rules.AlertRules()

	for _, check := range []struct {
		name   string
		result validate.Result
	}{
		{"dashboard", validate.Dashboard(dash, KnownMetrics)},
		{"recording rules", validate.Rules(recording, KnownMetrics)},
		{"alert rules", validate.Rules(alerts, KnownMetrics)},
	} {
		if !check.result.Ok() {
			return fmt.Errorf("%s validation failed: %v", check.name, check.result.Errors)
		}
		for _, w := range check.result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", check.name, w)
		}
	}

	if validateOnly {
		fmt.Println("validation passed")
		return nil
	}

	if cfg.DashboardEnabled {
		data, err := json.MarshalIndent(dash, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling dashboard: %w", err)
		}
		data = append(data, '\n')
		path := filepath.Join(cfg.OutputDir, "grafana", "data", "skindex-overview.json")
		if err := writeFile(path, data); err != nil {
			return err
		}
	}

	if cfg.RulesEnabled {
		for name, cr := range map[string]rules.PrometheusRule{
			"skindex-recording-rules.yaml": recording,
			"skindex-alerts.yaml":          alerts,
		} {
			data, err := yaml.Marshal(cr)
			if err != nil {
				return fmt.Errorf("marshaling %s: %w", name, err)
			}
			data = append([]byte(generatedHeader), data...)
			path := filepath.Join(cfg.OutputDir, "prometheus", name)
			if err := writeFile(path, data); err != nil {
				return err
			}
		}
	}

	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
