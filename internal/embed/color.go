package embed

import (
	"image/color"
	"regexp"
	"strconv"
	"strings"
)

// cssColor matches the rgb()/rgba() form getComputedStyle returns.
var cssColor = regexp.MustCompile(`^rgba?\(\s*(\d+)[\s,]+(\d+)[\s,]+(\d+)(?:\s*[,/]\s*([\d.]+%?))?\s*\)$`)

var white = color.RGBA{255, 255, 255, 255}

// parseComputedColor converts a computed CSS color to RGBA. Transparent and
// unparseable values count as white, which is what an email client paints
// behind the content.
func parseComputedColor(s string) color.RGBA {
	m := cssColor.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return white
	}
	if m[4] != "" && alpha(m[4]) == 0 {
		return white
	}
	return color.RGBA{R: channel(m[1]), G: channel(m[2]), B: channel(m[3]), A: 255}
}

func channel(s string) uint8 {
	v, _ := strconv.Atoi(s)
	return uint8(min(max(v, 0), 255))
}

func alpha(s string) float64 {
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 1
	}
	if pct {
		return v / 100
	}
	return v
}
