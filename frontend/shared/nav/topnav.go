package nav

import "github.com/KocBilge/barcode/frontend/theme"

// TopNavData is shared with page renderers.
type TopNavData struct {
	Theme         string
	ThemeIcon     string
	ActiveSection string
}

func BuildTopNavData(currentTheme, activeSection string) TopNavData {
	return TopNavData{
		Theme:         currentTheme,
		ThemeIcon:     theme.Icon(currentTheme),
		ActiveSection: activeSection,
	}
}
