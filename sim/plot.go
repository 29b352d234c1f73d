package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewPlot creates new plot of state component c of the simulation trace tr over time.
// It plots the following data series:
// truth:       true process state
// measurement: measured process output, plotted if the output has component c
// filtered:    filter estimates
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * tr is nil or empty
// * c is not a valid state component
// * gonum plot fails to be created
func NewPlot(tr *Trace, c int) (*plot.Plot, error) {
	if tr == nil || tr.Steps() == 0 {
		return nil, fmt.Errorf("invalid trace supplied")
	}

	_, nx := tr.Truth.Dims()
	if c < 0 || c >= nx {
		return nil, fmt.Errorf("invalid state component: %d", c)
	}

	p := plot.New()

	p.Title.Text = "State and Measurements over Time"
	p.X.Label.Text = "Time Step"
	p.Y.Label.Text = fmt.Sprintf("x%d", c+1)

	p.Legend.Top = true

	truthLine, err := plotter.NewLine(makePoints(tr.Truth, c))
	if err != nil {
		return nil, err
	}
	truthLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	truthLine.LineStyle.Width = vg.Points(1)

	p.Add(truthLine)
	p.Legend.Add(fmt.Sprintf("true state x%d", c+1), truthLine)

	if _, ny := tr.Measurements.Dims(); c < ny {
		measScatter, err := plotter.NewScatter(makePoints(tr.Measurements, c))
		if err != nil {
			return nil, err
		}
		measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
		measScatter.Shape = draw.CrossGlyph{}
		measScatter.GlyphStyle.Radius = vg.Points(2)

		p.Add(measScatter)
		p.Legend.Add(fmt.Sprintf("measurement x%d", c+1), measScatter)
	}

	filterLine, err := plotter.NewLine(makePoints(tr.Estimates, c))
	if err != nil {
		return nil, fmt.Errorf("failed to create line: %v", err)
	}
	filterLine.LineStyle.Color = color.RGBA{B: 255, A: 255}
	filterLine.LineStyle.Width = vg.Points(1)

	p.Add(filterLine)
	p.Legend.Add(fmt.Sprintf("estimated x%d", c+1), filterLine)

	return p, nil
}

// SavePlot saves plot p into file at path with size given in inches.
func SavePlot(p *plot.Plot, width, height float64, path string) error {
	return p.Save(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch, path)
}

func makePoints(m *mat.Dense, c int) plotter.XYs {
	r, _ := m.Dims()
	pts := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		pts[i].X = float64(i)
		pts[i].Y = m.At(i, c)
	}

	return pts
}
