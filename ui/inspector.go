package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ecosim/inspector"
)

// InspectorData holds what the inspector shows for the selected entity.
type InspectorData struct {
	Title    string
	Subtitle string
	Color    rl.Color
	Sections []inspector.Section
}

// Inspector renders the selected entity panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates an inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the panel and returns the Y below it.
func (ins *Inspector) Draw(data InspectorData) int32 {
	r := ins.renderer
	pad := r.Theme.Padding
	line := r.Theme.LineHeight

	rows := int32(2)
	for _, s := range data.Sections {
		rows += int32(len(s.Fields)) + 1
	}
	height := rows*(line+2) + pad*2
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	x := ins.x + pad
	y := ins.y + pad
	w := ins.width - pad*2

	rl.DrawCircle(x+6, y+8, 6, data.Color)
	rl.DrawText(data.Title, x+18, y, 16, rl.White)
	y += line + 4
	rl.DrawText(data.Subtitle, x, y, r.Theme.FontSize, data.Color)
	y += line

	for _, section := range data.Sections {
		y = r.DrawSectionHeader(x, y, section.Title)
		for _, f := range section.Fields {
			switch f.Widget {
			case inspector.WidgetBar:
				v, _ := inspector.FloatValue(f.Value)
				y = r.DrawBar(x, y, f.Name, v, f.Max(), w)
			default:
				y = r.DrawLabelValue(x, y, f.Name, f.Text())
			}
		}
	}
	return ins.y + height
}
