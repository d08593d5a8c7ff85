package render

import (
	"fmt"
	"strconv"
)

// RGBA returns a css rgba() color. Channels are 0-255, alpha is 0-1.
func RGBA(red, green, blue int, alpha float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", red, green, blue, formatFloat(alpha))
}

// HSLA returns a css hsla() color: hue in degrees, saturation and lightness in percent.
func HSLA(degHue, pctSaturation, pctLight, alpha float64) string {
	return fmt.Sprintf("hsla(%s, %s%%, %s%%, %s)",
		formatFloat(degHue),
		formatFloat(pctSaturation),
		formatFloat(pctLight),
		formatFloat(alpha))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
