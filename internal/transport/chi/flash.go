package chi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookie = "swapcycle_flash"

// Flash levels.
const (
	flashInfo    = "info"
	flashSuccess = "success"
	flashError   = "error"
)

// flash is a one-shot message shown on the next rendered page.
type flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

func setFlash(w http.ResponseWriter, level, message string) {
	data, err := json.Marshal(flash{Level: level, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads and clears the pending flash message.
func popFlash(w http.ResponseWriter, r *http.Request) *flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	data, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f flash
	if err := json.Unmarshal(data, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}
