package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fogleman/gg"
)

var palette = []string{
	"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF", "#FF9F40",
	"#8AC926", "#FF6B6B", "#00B8A9", "#F6416C", "#FFB400", "#6A0572",
	"#3A86FF", "#FF006E",
}

const (
	chartHeight  = 480
	barSlotWidth = 90
	marginX      = 60.0
	marginTop    = 70.0
	marginBottom = 60.0
)

// Render draws the series as a vertical bar chart and returns the PNG
// bytes.
func Render(s Series) ([]byte, error) {
	if len(s.Labels) == 0 || len(s.Labels) != len(s.Values) {
		return nil, errors.New("charts: series has no drawable data")
	}

	width := len(s.Labels)*barSlotWidth + int(2*marginX)
	if width < 640 {
		width = 640
	}

	dc := gg.NewContext(width, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0.15, 0.15, 0.15)
	dc.DrawStringAnchored(s.Title, float64(width)/2, marginTop/2, 0.5, 0.5)

	maxValue := 0.0
	for _, v := range s.Values {
		if v > maxValue {
			maxValue = v
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	plotHeight := float64(chartHeight) - marginTop - marginBottom
	slot := (float64(width) - 2*marginX) / float64(len(s.Values))
	barWidth := slot * 0.7

	// Baseline.
	dc.SetRGB(0.6, 0.6, 0.6)
	dc.SetLineWidth(1)
	dc.DrawLine(marginX, float64(chartHeight)-marginBottom, float64(width)-marginX, float64(chartHeight)-marginBottom)
	dc.Stroke()

	for i, v := range s.Values {
		barHeight := (v / maxValue) * plotHeight
		x := marginX + float64(i)*slot + (slot-barWidth)/2
		y := float64(chartHeight) - marginBottom - barHeight

		dc.SetHexColor(barColor(s, i))
		dc.DrawRectangle(x, y, barWidth, barHeight)
		dc.Fill()

		dc.SetRGB(0.15, 0.15, 0.15)
		dc.DrawStringAnchored(formatValue(v), x+barWidth/2, y-10, 0.5, 0.5)
		dc.DrawStringAnchored(truncateLabel(s.Labels[i]), x+barWidth/2, float64(chartHeight)-marginBottom/2, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func barColor(s Series, i int) string {
	if i < len(s.Colors) && s.Colors[i] != "" {
		return s.Colors[i]
	}
	return palette[i%len(palette)]
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}

func truncateLabel(label string) string {
	const max = 12
	if len(label) <= max {
		return label
	}
	return label[:max-1] + "…"
}
