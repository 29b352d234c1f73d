package main

import (
	"fmt"

	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/config"
	"github.com/milosgajdos/go-infokf/sim"
	"github.com/milosgajdos/go-infokf/smooth/rts"
	"github.com/spf13/cobra"
)

const (
	plotWidth  = 10.0
	plotHeight = 5.0
)

func doRun(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	logFile, _ := flags.GetString("log-file")
	logLevel, _ := flags.GetString("log-level")
	log, closer, err := newLogger(logFile, logLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	m, err := cfg.NewModel()
	if err != nil {
		return fmt.Errorf("failed to create model: %w", err)
	}

	p, err := cfg.NewProcess(m)
	if err != nil {
		return fmt.Errorf("failed to create process: %w", err)
	}

	f, err := cfg.NewFilter(m)
	if err != nil {
		return fmt.Errorf("failed to create filter: %w", err)
	}

	log.Info("running simulation",
		"steps", cfg.Steps,
		"seed", cfg.Seed,
		"form", cfg.Filter.Form,
		"control", cfg.Filter.Control)

	tr, err := sim.Run(cmd.Context(), p, f, cfg.ControlInput(), cfg.Steps)
	if err != nil {
		log.Error("simulation failed", "error", err)
		return err
	}

	log.Debug("simulation finished", "estimate", tr.Filtered[tr.Steps()-1])

	var smoothed []filter.Estimate
	if doSmooth, _ := flags.GetBool("smooth"); doSmooth {
		s, err := rts.New(f)
		if err != nil {
			return err
		}

		smoothed, err = s.Smooth(tr.Filtered, tr.Controls)
		if err != nil {
			log.Error("smoothing failed", "error", err)
			return err
		}
		log.Info("smoothed estimates", "count", len(smoothed))
	}

	if err := printSummary(cmd.OutOrStdout(), tr, smoothed); err != nil {
		return err
	}

	if path, _ := flags.GetString("csv"); path != "" {
		if err := saveCSV(path, tr, smoothed); err != nil {
			return fmt.Errorf("failed to save trace: %w", err)
		}
		log.Info("trace saved", "path", path)
	}

	if path, _ := flags.GetString("plot"); path != "" {
		c, _ := flags.GetInt("component")
		plt, err := sim.NewPlot(tr, c)
		if err != nil {
			return fmt.Errorf("failed to create plot: %w", err)
		}
		if err := sim.SavePlot(plt, plotWidth, plotHeight, path); err != nil {
			return fmt.Errorf("failed to save plot: %w", err)
		}
		log.Info("plot saved", "path", path, "component", c)
	}

	return nil
}

// loadConfig loads the scenario and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()

	var cfg *config.Config
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
	}

	if flags.Changed("steps") {
		cfg.Steps, _ = flags.GetInt("steps")
	}

	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetUint64("seed")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return cfg, nil
}

func doDefaults(cmd *cobra.Command, args []string) error {
	data, err := config.Default().Marshal()
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}
