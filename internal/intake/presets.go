package intake

// PresetDrink is a predefined drink with a fixed size and concentration.
type PresetDrink struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	SizeMl        int     `json:"size"`
	CaffeinePerMl float64 `json:"caffeinePerMl"`
	CaffeineMg    int     `json:"totalCaffeine"`
	Icon          string  `json:"icon"`
}

var presetDrinks = []PresetDrink{
	{ID: "redbull-250", Name: "Red Bull", SizeMl: 250, CaffeinePerMl: 0.32, CaffeineMg: 80, Icon: "🥤"},
	{ID: "monster-500", Name: "Monster Energy", SizeMl: 500, CaffeinePerMl: 0.32, CaffeineMg: 160, Icon: "⚡"},
	{ID: "coffee-200", Name: "Kaffee", SizeMl: 200, CaffeinePerMl: 0.40, CaffeineMg: 80, Icon: "☕"},
	{ID: "espresso-30", Name: "Espresso", SizeMl: 30, CaffeinePerMl: 2.12, CaffeineMg: 63, Icon: "☕"},
	{ID: "rockstar-500", Name: "Rockstar", SizeMl: 500, CaffeinePerMl: 0.32, CaffeineMg: 160, Icon: "⭐"},
	{ID: "goenrgy-500", Name: "Gönrgy", SizeMl: 500, CaffeinePerMl: 0.32, CaffeineMg: 160, Icon: "⚡"},
	{ID: "holy-500", Name: "Holy Energy", SizeMl: 500, CaffeinePerMl: 0.32, CaffeineMg: 160, Icon: "✨"},
	{ID: "mate-500", Name: "Club Mate", SizeMl: 500, CaffeinePerMl: 0.20, CaffeineMg: 100, Icon: "🧉"},
}

// canSizesMl lists the standard can volumes offered for quick entry.
var canSizesMl = []int{250, 330, 500}

// Presets returns the preset drink catalog.
func Presets() []PresetDrink {
	out := make([]PresetDrink, len(presetDrinks))
	copy(out, presetDrinks)
	return out
}

// CanSizesMl returns the standard can volumes in ml.
func CanSizesMl() []int {
	out := make([]int, len(canSizesMl))
	copy(out, canSizesMl)
	return out
}

// PresetByID looks up a preset drink by its catalog id.
func PresetByID(id string) (PresetDrink, bool) {
	for _, drink := range presetDrinks {
		if drink.ID == id {
			return drink, true
		}
	}
	return PresetDrink{}, false
}
