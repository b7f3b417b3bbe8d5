package theme

import (
	"net/http"
)

const (
	CookieName = "theme"
	Light      = "light"
	Dark       = "dark"
)

// FromRequest returns the persisted theme, light when unset or unknown.
func FromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil || !valid(c.Value) {
		return Light
	}
	return c.Value
}

// Icon is the toggle icon shown for a theme.
func Icon(theme string) string {
	if theme == Dark {
		return "bi-moon-stars-fill"
	}
	return "bi-brightness-high-fill"
}

func valid(theme string) bool {
	return theme == Light || theme == Dark
}

// ToggleHandler handles POST /theme with form value theme=light|dark.
// The cookie is readable by the page script so the toggle can apply it without a reload.
func ToggleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		theme := r.FormValue("theme")
		if !valid(theme) {
			http.Error(w, "invalid theme", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    theme,
			Path:     "/",
			MaxAge:   365 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
			HttpOnly: false,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
