package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/odestep/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// GeneratePhasePortrait pairs two solution rows, one point per mesh point.
// Row 0 is the independent variable, so (0, 1) plots y against x.
func GeneratePhasePortrait(result *dynamo.Result, xIdx, yIdx int) *PhasePortrait2D {
	rows, cols := result.Solution.Dims()
	if xIdx < 0 || yIdx < 0 || xIdx >= rows || yIdx >= rows {
		return nil
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, cols),
	}
	for i := 0; i < cols; i++ {
		portrait.Points = append(portrait.Points, Point{
			X: result.Solution.At(xIdx, i),
			Y: result.Solution.At(yIdx, i),
		})
	}
	return portrait
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	// pad by 10% so the curve does not touch the frame
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// axes, where they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records points when a trajectory crosses a plane
type PoincareSection struct {
	Points []Point
}

// GeneratePoincareSection scans the solution for upward crossings of
// threshold by component crossIdx and records (recordX, recordY) at each,
// linearly interpolated between the two bracketing mesh points.
func GeneratePoincareSection(result *dynamo.Result, crossIdx int, threshold float64, recordX, recordY int) *PoincareSection {
	rows, cols := result.Solution.Dims()
	for _, idx := range []int{crossIdx, recordX, recordY} {
		if idx < 0 || idx >= rows {
			return nil
		}
	}

	section := &PoincareSection{Points: make([]Point, 0)}
	sol := result.Solution
	for i := 1; i < cols; i++ {
		prev, curr := sol.At(crossIdx, i-1), sol.At(crossIdx, i)
		if !(prev < threshold && curr >= threshold) {
			continue
		}

		frac := (threshold - prev) / (curr - prev)
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		lerp := func(k int) float64 {
			a := sol.At(k, i-1)
			return a + frac*(sol.At(k, i)-a)
		}
		section.Points = append(section.Points, Point{X: lerp(recordX), Y: lerp(recordY)})
	}
	return section
}

// PoincareSectionToASCII converts section data to ASCII plot
func PoincareSectionToASCII(section *PoincareSection, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait2D{Points: section.Points}, width, height)
}
