package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	defaultChartHeight = 12
	minChartWidth      = 20
	fallbackTermWidth  = 80
	sparkChars         = " .:-=+*#%@"
	barRune            = '█'
)

// TerminalWidth returns the current terminal width, or a fixed fallback when
// stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

// brailleCanvas is a dot grid rendered as braille characters, two dots wide
// and four dots tall per cell.
type brailleCanvas struct {
	cells  [][]uint8
	width  int
	height int
}

func newBrailleCanvas(width, height int) *brailleCanvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &brailleCanvas{cells: cells, width: width, height: height}
}

// dotWidth and dotHeight are the canvas dimensions in dots.
func (c *brailleCanvas) dotWidth() int  { return c.width * 2 }
func (c *brailleCanvas) dotHeight() int { return c.height * 4 }

func (c *brailleCanvas) set(x, y int) {
	if x < 0 || y < 0 || x >= c.dotWidth() || y >= c.dotHeight() {
		return
	}
	c.cells[y/4][x/2] |= brailleDotMask(x%2, y%4)
}

// line draws a straight dot segment using Bresenham stepping.
func (c *brailleCanvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	sx := step(x0, x1)
	dy := -abs(y1 - y0)
	sy := step(y0, y1)
	err := dx + dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				return
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				return
			}
			err += dx
			y0 += sy
		}
	}
}

func (c *brailleCanvas) render(w io.Writer) error {
	for y := 0; y < c.height; y++ {
		var b strings.Builder
		for x := 0; x < c.width; x++ {
			b.WriteRune(rune(0x2800 + int(c.cells[y][x])))
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

func brailleDotMask(x, y int) uint8 {
	masks := [2][4]uint8{
		{0x01, 0x02, 0x04, 0x40},
		{0x08, 0x10, 0x20, 0x80},
	}
	return masks[x][y]
}

// LinePlot renders xs/ys as a connected braille line chart with axis range
// labels. Empty input renders nothing.
func LinePlot(w io.Writer, title string, xs, ys []float64, width, height int) error {
	return plotXY(w, title, xs, ys, width, height, true)
}

// ScatterPlot renders xs/ys as unconnected braille dots.
func ScatterPlot(w io.Writer, title string, xs, ys []float64, width, height int) error {
	return plotXY(w, title, xs, ys, width, height, false)
}

func plotXY(w io.Writer, title string, xs, ys []float64, width, height int, connect bool) error {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil
	}
	if width < minChartWidth {
		width = minChartWidth
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	if xMax-xMin < 1e-9 {
		xMin--
		xMax++
	}
	if yMax-yMin < 1e-9 {
		yMin--
		yMax++
	}

	canvas := newBrailleCanvas(width, height)
	prevX, prevY := -1, -1
	for i := range xs {
		px := int(math.Round((xs[i] - xMin) / (xMax - xMin) * float64(canvas.dotWidth()-1)))
		py := int(math.Round((1 - (ys[i]-yMin)/(yMax-yMin)) * float64(canvas.dotHeight()-1)))
		if connect && prevX >= 0 {
			canvas.line(prevX, prevY, px, py)
		} else {
			canvas.set(px, py)
		}
		prevX, prevY = px, py
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "y: %.2f .. %.2f\n", yMin, yMax); err != nil {
		return err
	}
	if err := canvas.render(w); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "x: %.0f .. %.0f\n", xMin, xMax); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BarChart renders labeled horizontal bars scaled to the widest value.
func BarChart(w io.Writer, title string, labels []string, values []float64, width int) error {
	if len(labels) == 0 || len(labels) != len(values) {
		return nil
	}
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	labelWidth := 0
	maxVal := 0.0
	for i, label := range labels {
		if lw := runewidth.StringWidth(label); lw > labelWidth {
			labelWidth = lw
		}
		if values[i] > maxVal {
			maxVal = values[i]
		}
	}
	barWidth := width - labelWidth - 14
	if barWidth < 10 {
		barWidth = 10
	}
	for i, label := range labels {
		bar := ""
		if maxVal > 0 && values[i] > 0 {
			n := int(math.Round(values[i] / maxVal * float64(barWidth)))
			if n == 0 {
				n = 1
			}
			bar = strings.Repeat(string(barRune), n)
		}
		pad := strings.Repeat(" ", labelWidth-runewidth.StringWidth(label))
		if _, err := fmt.Fprintf(w, "%s%s  %s %s\n", label, pad, bar, trimTrailingZeros(values[i])); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

func trimTrailingZeros(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func minMax(values []float64) (float64, float64) {
	minVal := math.Inf(1)
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.IsInf(minVal, 1) {
		minVal = 0
	}
	if math.IsInf(maxVal, -1) {
		maxVal = 0
	}
	return minVal, maxVal
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func step(from, to int) int {
	if from < to {
		return 1
	}
	return -1
}
