package defaults

import (
	"fmt"
	"net/url"
	"strings"
)

const svgPrefix = "data:image/svg+xml,"

// dataURI percent-encodes an SVG document into a self-contained image URL.
func dataURI(svg string) string {
	return svgPrefix + url.PathEscape(strings.TrimSpace(svg))
}

// labelCard draws text on a rounded diagonal gradient.
func labelCard(label, startColor, endColor string) string {
	return dataURI(fmt.Sprintf(`
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="260">
  <defs>
    <linearGradient id="grad" x1="0" x2="1" y1="0" y2="1">
      <stop offset="0%%" stop-color="%s" />
      <stop offset="100%%" stop-color="%s" />
    </linearGradient>
  </defs>
  <rect width="400" height="260" rx="28" fill="url(#grad)" />
  <text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" fill="#1f1f1f" font-family="'Baloo 2', 'Comic Sans MS', cursive" font-size="64" font-weight="800">%s</text>
</svg>`, startColor, endColor, label))
}

// illustratedCard places a drawing on a plain rounded background. A zero
// height means the standard 260.
func illustratedCard(content string, height int) string {
	if height == 0 {
		height = 260
	}
	return dataURI(fmt.Sprintf(`
<svg xmlns="http://www.w3.org/2000/svg" width="400" height="%d">
  <rect width="400" height="%d" rx="40" fill="%s" />
  <g transform="translate(0, 0)">%s</g>
</svg>`, height, height, shapeBackground, content))
}
