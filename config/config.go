// Package config provides simulation scenario configuration.
//
// A scenario describes the linear system, its noise, the initial filter condition,
// the constant control input and the filter used to estimate the system state.
// Scenarios are loaded from YAML files:
//
//	steps: 100
//	seed: 42
//	model:
//	  a: [[1, 0.1], [0, 1]]
//	  b: [[0.5, 0], [0, 1]]
//	  h: [[1, 0], [0, 1]]
//	noise:
//	  q: [[0.00025, 0.0005], [0.0005, 0.0001]]
//	  r: 1
//	  relaxed: true
//	  measurement: gaussian
//	init:
//	  x0: [0, 0]
//	  p0: [[5, 0], [0, 5]]
//	control: [0.015, 0.1]
//	filter:
//	  form: information
//	  control: additive
//
// Environment variables override the loaded values:
//
//	KFSIM_STEPS - number of simulation steps
//	KFSIM_SEED  - seed of the noise sources
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/milosgajdos/go-infokf/matrix"
	"gopkg.in/yaml.v3"
)

const (
	// FormInformation selects the information form Kalman filter
	FormInformation = "information"
	// FormGain selects the gain form Kalman filter
	FormGain = "gain"

	// ControlAdditive adds the control input to the predicted state
	ControlAdditive = "additive"
	// ControlMatrix applies the control matrix to the control input in prediction
	ControlMatrix = "matrix"

	// MeasurementGaussian draws measurement noise from a Gaussian with the output noise covariance
	MeasurementGaussian = "gaussian"
	// MeasurementZero makes the simulated measurements noiseless
	MeasurementZero = "zero"
)

// symTol is the tolerance of covariance symmetry check
const symTol = 1e-12

// Config is simulation scenario
type Config struct {
	// Steps is the number of simulation steps
	Steps int `yaml:"steps"`
	// Seed seeds the noise sources
	Seed uint64 `yaml:"seed"`
	// Model is the linear system model
	Model ModelConfig `yaml:"model"`
	// Noise configures state and measurement noise
	Noise NoiseConfig `yaml:"noise"`
	// Init is the initial filter condition
	Init InitConfig `yaml:"init"`
	// Control is the constant control input applied in every step
	Control []float64 `yaml:"control"`
	// Filter selects the filter
	Filter FilterConfig `yaml:"filter"`
}

// ModelConfig holds the system matrices.
type ModelConfig struct {
	// A is the state transition matrix
	A [][]float64 `yaml:"a"`
	// B is the control matrix
	B [][]float64 `yaml:"b"`
	// H is the measurement matrix
	H [][]float64 `yaml:"h"`
	// Dt is the sampling time. If positive A and B are continuous-time
	// matrices discretized with Dt.
	Dt float64 `yaml:"dt,omitempty"`
}

// NoiseConfig holds noise covariances.
type NoiseConfig struct {
	// Q is the state noise covariance assumed by the filter
	Q [][]float64 `yaml:"q"`
	// R is the measurement noise variance of every output component
	R float64 `yaml:"r,omitempty"`
	// RMat is the full measurement noise covariance; it takes precedence over R
	RMat [][]float64 `yaml:"rmat,omitempty"`
	// Relaxed relaxes the state noise covariance check
	Relaxed bool `yaml:"relaxed,omitempty"`
	// Measurement selects the simulated measurement noise: gaussian or zero.
	// The filter assumes the output noise covariance either way.
	Measurement string `yaml:"measurement,omitempty"`
	// Disturbance is the covariance of the disturbance applied to the simulated process.
	// The process evolves deterministically if it is empty.
	Disturbance [][]float64 `yaml:"disturbance,omitempty"`
}

// InitConfig is the initial filter condition.
type InitConfig struct {
	// X0 is the initial state
	X0 []float64 `yaml:"x0"`
	// P0 is the initial state covariance
	P0 [][]float64 `yaml:"p0"`
}

// FilterConfig selects the filter.
type FilterConfig struct {
	// Form is either information or gain
	Form string `yaml:"form"`
	// Control is either additive or matrix
	Control string `yaml:"control"`
}

// Default returns the reference scenario.
func Default() *Config {
	return &Config{
		Steps: 100,
		Seed:  42,
		Model: ModelConfig{
			A: [][]float64{{1, 0.1}, {0, 1}},
			B: [][]float64{{0.5, 0}, {0, 1}},
			H: [][]float64{{1, 0}, {0, 1}},
		},
		Noise: NoiseConfig{
			Q:       [][]float64{{0.00025, 0.0005}, {0.0005, 0.0001}},
			R:           1,
			Relaxed:     true,
			Measurement: MeasurementGaussian,
		},
		Init: InitConfig{
			X0: []float64{0, 0},
			P0: [][]float64{{5, 0}, {0, 5}},
		},
		Control: []float64{0.015, 0.1},
		Filter: FilterConfig{
			Form:    FormInformation,
			Control: ControlAdditive,
		},
	}
}

// Load loads the scenario from YAML file at path, applies environment overrides and validates it.
// Values missing from the file are taken from Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse parses YAML encoded scenario on top of Default. It does not validate the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides scenario values with environment variables.
func (c *Config) ApplyEnv() error {
	if val := os.Getenv("KFSIM_STEPS"); val != "" {
		steps, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid KFSIM_STEPS: %w", err)
		}
		c.Steps = steps
	}

	if val := os.Getenv("KFSIM_SEED"); val != "" {
		seed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid KFSIM_SEED: %w", err)
		}
		c.Seed = seed
	}

	return nil
}

// Marshal encodes the scenario into YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks the scenario is consistent: all matrices are rectangular
// and their dimensions conform to the state dimension given by A.
func (c *Config) Validate() error {
	var errs []error

	if c.Steps <= 0 {
		errs = append(errs, fmt.Errorf("steps must be positive: %d", c.Steps))
	}

	if c.Model.Dt < 0 {
		errs = append(errs, fmt.Errorf("sampling time must not be negative: %v", c.Model.Dt))
	}

	nx, err := checkDims("model.a", c.Model.A, -1, -1)
	if err != nil || nx == 0 {
		// nothing else can be checked without the state dimension
		return errors.Join(append(errs, fmt.Errorf("model.a must be a non-empty square matrix: %v", err))...)
	}

	if _, err := checkDims("model.a", c.Model.A, nx, nx); err != nil {
		errs = append(errs, err)
	}

	nu := 0
	if len(c.Model.B) > 0 {
		if _, err := checkDims("model.b", c.Model.B, nx, -1); err != nil {
			errs = append(errs, err)
		} else {
			nu = len(c.Model.B[0])
		}
	}

	ny, err := checkDims("model.h", c.Model.H, -1, nx)
	if err != nil {
		errs = append(errs, err)
	}
	if ny == 0 {
		errs = append(errs, fmt.Errorf("model.h must not be empty"))
	}

	if err := checkCov("noise.q", c.Noise.Q, nx); err != nil {
		errs = append(errs, err)
	}

	if len(c.Noise.RMat) > 0 {
		if err := checkCov("noise.rmat", c.Noise.RMat, ny); err != nil {
			errs = append(errs, err)
		}
	} else if c.Noise.R <= 0 {
		errs = append(errs, fmt.Errorf("noise.r must be positive: %v", c.Noise.R))
	}

	if len(c.Noise.Disturbance) > 0 {
		if err := checkCov("noise.disturbance", c.Noise.Disturbance, nx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(c.Init.X0) != nx {
		errs = append(errs, fmt.Errorf("init.x0 length %d != %d", len(c.Init.X0), nx))
	}

	if err := checkCov("init.p0", c.Init.P0, nx); err != nil {
		errs = append(errs, err)
	}

	switch c.Noise.Measurement {
	case MeasurementGaussian, MeasurementZero:
	default:
		errs = append(errs, fmt.Errorf("unknown measurement noise: %q", c.Noise.Measurement))
	}

	switch c.Filter.Form {
	case FormInformation, FormGain:
	default:
		errs = append(errs, fmt.Errorf("unknown filter form: %q", c.Filter.Form))
	}

	switch c.Filter.Control {
	case ControlAdditive:
		if len(c.Control) > 0 && len(c.Control) != nx {
			errs = append(errs, fmt.Errorf("additive control length %d != %d", len(c.Control), nx))
		}
	case ControlMatrix:
		if c.Filter.Form == FormInformation && nu == 0 {
			errs = append(errs, fmt.Errorf("matrix control requires model.b"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown filter control: %q", c.Filter.Control))
	}

	if len(c.Control) > 0 && len(c.Control) != nu {
		errs = append(errs, fmt.Errorf("control length %d != %d", len(c.Control), nu))
	}

	return errors.Join(errs...)
}

// checkCov checks m is a symmetric n x n matrix.
func checkCov(name string, m [][]float64, n int) error {
	if _, err := checkDims(name, m, n, n); err != nil {
		return err
	}

	if !matrix.IsSymmetric(dense(m), symTol) {
		return fmt.Errorf("%s: matrix is not symmetric", name)
	}

	return nil
}

// checkDims checks m is a rows x cols matrix and returns its number of rows.
// Negative rows or cols are not checked.
func checkDims(name string, m [][]float64, rows, cols int) (int, error) {
	if rows >= 0 && len(m) != rows {
		return len(m), fmt.Errorf("%s: %d rows != %d", name, len(m), rows)
	}

	if len(m) == 0 {
		return 0, nil
	}

	c := len(m[0])
	for i, row := range m {
		if len(row) != c {
			return len(m), fmt.Errorf("%s: row %d has %d columns != %d", name, i, len(row), c)
		}
	}

	if cols >= 0 && c != cols {
		return len(m), fmt.Errorf("%s: %d columns != %d", name, c, cols)
	}

	return len(m), nil
}
