// Package export renders solutions to image formats.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/odestep/internal/analysis"
)

var ErrTooFewPoints = errors.New("export: need at least two finite points")

// TrajectoryToSVG writes the points as a single SVG path scaled to
// width x height with 10% padding. Non-finite points start a new
// subpath.
func TrajectoryToSVG(w io.Writer, points []analysis.Point, width, height int, strokeColor string) error {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	finite := 0
	for _, p := range points {
		if !usable(p) {
			continue
		}
		finite++
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if finite < 2 {
		return ErrTooFewPoints
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	var d strings.Builder
	move := true
	for _, p := range points {
		if !usable(p) {
			move = true
			continue
		}
		x := (p.X - minX) / rangeX * float64(width)
		y := float64(height) - (p.Y-minY)/rangeY*float64(height)
		cmd := "L"
		if move {
			cmd = "M"
			move = false
		}
		fmt.Fprintf(&d, "%s%.1f,%.1f ", cmd, x, y)
	}

	_, err := fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="%s"/>
</svg>
`, width, height, width, height, strokeColor, strings.TrimSpace(d.String()))
	return err
}

func usable(p analysis.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
