// Package inspector shows the components of a selected entity in a side panel.
package inspector

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/mlange-42/ark/ecs"
)

// Panel dimensions
const (
	PanelWidth   = 300
	PanelPadding = 10
	HeaderHeight = 26
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 230}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorSectionText = rl.Color{R: 200, G: 200, B: 220, A: 255}
)

// Section is a titled group of fields, usually one component.
type Section struct {
	Title  string
	Fields []Field
}

// Inspector tracks the selected entity and renders its sections.
type Inspector struct {
	selected    ecs.Entity
	hasSelected bool

	sections []Section

	panelX, panelY int32
	screenHeight   int32
}

// NewInspector creates an inspector anchored to the bottom-left of the screen.
func NewInspector(screenWidth, screenHeight int32) *Inspector {
	ins := &Inspector{}
	ins.Resize(screenWidth, screenHeight)
	return ins
}

// Resize re-anchors the panel.
func (ins *Inspector) Resize(_, screenHeight int32) {
	ins.screenHeight = screenHeight
	ins.panelX = PanelPadding
	ins.panelY = screenHeight / 3
}

// Select makes e the inspected entity.
func (ins *Inspector) Select(e ecs.Entity) {
	ins.selected = e
	ins.hasSelected = true
}

// Deselect clears the selection.
func (ins *Inspector) Deselect() {
	ins.hasSelected = false
	ins.sections = ins.sections[:0]
}

// Selected returns the selected entity, if any.
func (ins *Inspector) Selected() (ecs.Entity, bool) {
	return ins.selected, ins.hasSelected
}

// Contains reports whether the screen point lies over the panel.
func (ins *Inspector) Contains(x, y float32) bool {
	if !ins.hasSelected {
		return false
	}
	return int32(x) >= ins.panelX && int32(x) <= ins.panelX+PanelWidth &&
		int32(y) >= ins.panelY && int32(y) <= ins.panelY+ins.Height()
}

// Reset drops the sections gathered for the previous frame.
func (ins *Inspector) Reset() {
	ins.sections = ins.sections[:0]
}

// Add appends a section built from a component's fields.
func (ins *Inspector) Add(title string, component any) {
	ins.sections = append(ins.sections, Section{Title: title, Fields: ExtractFields(component)})
}

// AddFields appends a section of precomputed fields.
func (ins *Inspector) AddFields(title string, fields ...Field) {
	ins.sections = append(ins.sections, Section{Title: title, Fields: fields})
}

// Sections returns the sections gathered for this frame.
func (ins *Inspector) Sections() []Section {
	return ins.sections
}

// Height returns the panel height for the current sections.
func (ins *Inspector) Height() int32 {
	h := int32(HeaderHeight + PanelPadding)
	for _, s := range ins.sections {
		h += lineHeight + int32(len(s.Fields))*lineHeight + 4
	}
	return h
}

// Draw renders the panel if an entity is selected.
func (ins *Inspector) Draw(title string) {
	if !ins.hasSelected {
		return
	}

	x, y := ins.panelX, ins.panelY
	rl.DrawRectangle(x, y, PanelWidth, ins.Height(), ColorPanelBg)
	rl.DrawRectangle(x, y, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText(title, x+PanelPadding, y+5, 16, rl.White)
	y += HeaderHeight + 4

	for _, s := range ins.sections {
		rl.DrawText(s.Title, x+PanelPadding, y, fontSize, ColorSectionText)
		y += lineHeight
		for _, f := range s.Fields {
			y += drawField(x+PanelPadding*2, y, f)
		}
		y += 4
	}
}
