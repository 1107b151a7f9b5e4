package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg     = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill   = rl.Color{R: 100, G: 180, B: 100, A: 255}
	ColorText      = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim   = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorFlagsText = rl.Color{R: 255, G: 200, B: 100, A: 255}
)

const (
	fontSize   = 14
	lineHeight = 18
	labelWidth = 90
)

// drawField renders one field at (x, y) and returns the height used.
func drawField(x, y int32, f Field) int32 {
	rl.DrawText(f.Name, x, y, fontSize, ColorTextDim)
	vx := x + labelWidth

	switch f.Widget {
	case WidgetBar:
		if v, ok := GetFloat(f.Value); ok {
			drawBar(vx, y, v, GetMax(f.Options))
			return lineHeight
		}
	case WidgetAngle:
		if v, ok := GetFloat(f.Value); ok {
			rl.DrawText(FormatAngle(v), vx, y, fontSize, ColorText)
			return lineHeight
		}
	case WidgetFlags:
		if v, ok := GetFloat(f.Value); ok {
			rl.DrawText(FormatFlags(uint64(v), f.Options["names"]), vx, y, fontSize, ColorFlagsText)
			return lineHeight
		}
	}

	rl.DrawText(FormatValue(f.Value, f.Options["fmt"]), vx, y, fontSize, ColorText)
	return lineHeight
}

func drawBar(x, y int32, value, maxVal float64) {
	const w, h = 110, 12
	ratio := min(max(value/maxVal, 0), 1)

	rl.DrawRectangle(x, y+1, w, h, ColorBarBg)
	rl.DrawRectangle(x, y+1, int32(w*ratio), h, ColorBarFill)
	rl.DrawText(fmt.Sprintf("%.2f", value), x+w+6, y, fontSize, ColorTextDim)
}
