package domain

const (
	GlyphSeedling = "🌱"
	GlyphWilted   = "🥀"

	EmptyGardenMessage = "No flowers yet. Complete some tasks to grow your garden! 🌱"
)

var flowers = map[Mood]string{
	MoodSleepy:  "🌙",
	MoodNeutral: "🌾",
	MoodHappy:   "🌼",
	MoodLoved:   "🌸",
	MoodSparkly: "🌟",
}

// FlowerFor maps a mood to its flower. Unknown moods grow a seedling.
func FlowerFor(m Mood) string {
	if f, ok := flowers[m]; ok {
		return f
	}
	return GlyphSeedling
}

// ListGlyph is the glyph shown next to a task in the plain list.
func ListGlyph(t Task) string {
	if !t.Completed {
		return GlyphSeedling
	}
	return FlowerFor(t.Mood)
}

type Flower struct {
	TaskID  string `json:"taskId,omitempty"`
	Glyph   string `json:"glyph"`
	Caption string `json:"caption"`
	Mood    Mood   `json:"mood"`
}

// Garden is the projection of a task snapshot. Empty is set when there is
// nothing to show, so "no flowers" is distinguishable from "not loaded".
type Garden struct {
	Flowers []Flower `json:"flowers"`
	Empty   bool     `json:"empty"`
	Message string   `json:"message,omitempty"`
}

// ProjectGarden keeps completed tasks in input order and maps each to a flower.
func ProjectGarden(tasks []Task) Garden {
	g := Garden{Flowers: []Flower{}}
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		g.Flowers = append(g.Flowers, Flower{
			TaskID:  t.ID,
			Glyph:   FlowerFor(t.Mood),
			Caption: t.Text,
			Mood:    t.Mood,
		})
	}
	if len(g.Flowers) == 0 {
		g.Empty = true
		g.Message = EmptyGardenMessage
	}
	return g
}
