// Package diagrams renders Mermaid charts for Markdown reports.
package diagrams

import (
	"fmt"
	"strings"
)

// Slice is one wedge of a pie chart.
type Slice struct {
	Label string
	Value float64
}

// Pie renders a mermaid pie chart. Slices with a non-positive value are
// skipped; with none left the result is empty.
func Pie(title string, slices []Slice) string {
	var b strings.Builder
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		fmt.Fprintf(&b, "    \"%s\" : %.4g\n", escapeMermaid(s.Label), s.Value)
	}
	if b.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("pie showData\n    title %s\n%s", escapeMermaid(title), b.String())
}

// Point is one bin of a reliability diagram.
type Point struct {
	Center    float64
	Predicted float64
	Observed  float64
}

// Reliability renders an xychart with observed frequency as bars and mean
// predicted probability as a line, one x position per bin. A calibrated
// forecaster has the line on top of the bars.
func Reliability(title string, points []Point) string {
	if len(points) == 0 {
		return ""
	}
	xs := make([]string, len(points))
	observed := make([]string, len(points))
	predicted := make([]string, len(points))
	for i, p := range points {
		xs[i] = fmt.Sprintf("%.2f", p.Center)
		observed[i] = fmt.Sprintf("%.4f", p.Observed)
		predicted[i] = fmt.Sprintf("%.4f", p.Predicted)
	}

	var b strings.Builder
	b.WriteString("xychart-beta\n")
	fmt.Fprintf(&b, "    title \"%s\"\n", escapeMermaid(title))
	fmt.Fprintf(&b, "    x-axis \"Forecast probability\" [%s]\n", strings.Join(xs, ", "))
	b.WriteString("    y-axis \"Frequency\" 0 --> 1\n")
	fmt.Fprintf(&b, "    bar [%s]\n", strings.Join(observed, ", "))
	fmt.Fprintf(&b, "    line [%s]\n", strings.Join(predicted, ", "))
	return b.String()
}

// Fence wraps a chart in a mermaid code fence, or returns "" for an empty
// chart.
func Fence(chart string) string {
	if chart == "" {
		return ""
	}
	return "```mermaid\n" + chart + "```\n"
}

// escapeMermaid escapes characters that have special meaning in mermaid labels.
func escapeMermaid(s string) string {
	s = strings.ReplaceAll(s, "\"", "#quot;")
	s = strings.ReplaceAll(s, "(", "#lpar;")
	s = strings.ReplaceAll(s, ")", "#rpar;")
	s = strings.ReplaceAll(s, "[", "#lsqb;")
	s = strings.ReplaceAll(s, "]", "#rsqb;")
	s = strings.ReplaceAll(s, "{", "#lbrace;")
	s = strings.ReplaceAll(s, "}", "#rbrace;")
	s = strings.ReplaceAll(s, "<", "#lt;")
	s = strings.ReplaceAll(s, ">", "#gt;")
	return strings.Join(strings.Fields(s), " ")
}
