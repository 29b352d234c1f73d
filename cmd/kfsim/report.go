package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	filter "github.com/milosgajdos/go-infokf"
	"github.com/milosgajdos/go-infokf/sim"
)

// printSummary renders per component RMSE of measurements, estimates and,
// if given, smoothed estimates against the true state.
func printSummary(w io.Writer, tr *sim.Trace, smoothed []filter.Estimate) error {
	measErr := tr.MeasurementRMSE()
	estErr := tr.EstimateRMSE()

	var smoothErr []float64
	if smoothed != nil {
		var err error
		if smoothErr, err = tr.SmoothedRMSE(smoothed); err != nil {
			return err
		}
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := table.Row{"COMPONENT", "MEASUREMENT RMSE", "ESTIMATE RMSE"}
	if smoothErr != nil {
		header = append(header, "SMOOTHED RMSE")
	}
	tw.AppendHeader(header)

	for i := range estErr {
		row := table.Row{fmt.Sprintf("x%d", i+1), "-", fmt.Sprintf("%.6f", estErr[i])}
		if i < len(measErr) {
			row[1] = fmt.Sprintf("%.6f", measErr[i])
		}
		if smoothErr != nil {
			row = append(row, fmt.Sprintf("%.6f", smoothErr[i]))
		}
		tw.AppendRow(row)
	}

	tw.AppendFooter(table.Row{"STEPS", tr.Steps(), "TRACE(P)", fmt.Sprintf("%.6f", tr.CovTrace[tr.Steps()-1])})
	tw.Render()

	return nil
}

// saveCSV writes the simulation trace into CSV file at path, one row per step.
func saveCSV(path string, tr *sim.Trace, smoothed []filter.Estimate) error {
	_, nx := tr.Truth.Dims()
	_, ny := tr.Measurements.Dims()

	header := table.Row{"step"}
	for i := 1; i <= nx; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 1; i <= ny; i++ {
		header = append(header, fmt.Sprintf("z%d", i))
	}
	for i := 1; i <= nx; i++ {
		header = append(header, fmt.Sprintf("x%d_est", i))
	}
	if smoothed != nil {
		for i := 1; i <= nx; i++ {
			header = append(header, fmt.Sprintf("x%d_smooth", i))
		}
	}
	header = append(header, "trace_p")

	tw := table.NewWriter()
	tw.AppendHeader(header)

	for k := 0; k < tr.Steps(); k++ {
		row := table.Row{k}
		for i := 0; i < nx; i++ {
			row = append(row, tr.Truth.At(k, i))
		}
		for i := 0; i < ny; i++ {
			row = append(row, tr.Measurements.At(k, i))
		}
		for i := 0; i < nx; i++ {
			row = append(row, tr.Estimates.At(k, i))
		}
		if smoothed != nil {
			val := smoothed[k].Val()
			for i := 0; i < nx; i++ {
				row = append(row, val.AtVec(i))
			}
		}
		row = append(row, tr.CovTrace[k])
		tw.AppendRow(row)
	}

	return os.WriteFile(path, []byte(tw.RenderCSV()+"\n"), 0o644)
}
