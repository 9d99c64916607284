package loam

// RecipeMetadata is the frontmatter of a recipe document. The body of a
// markdown recipe is free-form lab notes and is not compiled.
type RecipeMetadata struct {
	ID      string         `json:"id" mapstructure:"id"`
	Name    string         `json:"name" mapstructure:"name"`
	Gcode   map[string]any `json:"gcode" mapstructure:"gcode"`
	Objects []any          `json:"objects" mapstructure:"objects"`
}

func (m RecipeMetadata) document() map[string]any {
	doc := map[string]any{
		"gcode":   m.Gcode,
		"objects": m.Objects,
	}
	if m.Gcode == nil {
		delete(doc, "gcode")
	}
	if m.Objects == nil {
		delete(doc, "objects")
	}
	if m.Name != "" {
		doc["name"] = m.Name
	}
	return doc
}
