package pukla

// DefaultThemeID is applied to pages created without a theme
const DefaultThemeID = "classic"

// Theme is a built-in colour and font set for a page
type Theme struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	BackgroundColor string `json:"background_color"`
	TextColor       string `json:"text_color"`
	ButtonColor     string `json:"button_color"`
	ButtonTextColor string `json:"button_text_color"`
	ButtonStyle     string `json:"button_style"` // rounded, pill or square
	FontFamily      string `json:"font_family"`
}

var themes = []Theme{
	{ID: "classic", Name: "Classic", BackgroundColor: "#ffffff", TextColor: "#111827", ButtonColor: "#111827", ButtonTextColor: "#ffffff", ButtonStyle: "rounded", FontFamily: "Inter"},
	{ID: "midnight", Name: "Midnight", BackgroundColor: "#0f172a", TextColor: "#e2e8f0", ButtonColor: "#1e293b", ButtonTextColor: "#f8fafc", ButtonStyle: "rounded", FontFamily: "Inter"},
	{ID: "sand", Name: "Sand", BackgroundColor: "#f5efe6", TextColor: "#3f3a34", ButtonColor: "#d6c7ae", ButtonTextColor: "#3f3a34", ButtonStyle: "pill", FontFamily: "IBM Plex Sans Arabic"},
	{ID: "forest", Name: "Forest", BackgroundColor: "#14342b", TextColor: "#f1f7ed", ButtonColor: "#2e6b4f", ButtonTextColor: "#ffffff", ButtonStyle: "square", FontFamily: "Tajawal"},
	{ID: "sunset", Name: "Sunset", BackgroundColor: "#ffedd5", TextColor: "#7c2d12", ButtonColor: "#ea580c", ButtonTextColor: "#ffffff", ButtonStyle: "pill", FontFamily: "Cairo"},
}

// Themes returns the built-in themes
func Themes() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// FindTheme looks up a built-in theme by id
func FindTheme(id string) (Theme, bool) {
	for _, t := range themes {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}
