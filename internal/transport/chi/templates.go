package chi

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/swapcycle/swapcycle/internal/domain/listing"
	"github.com/swapcycle/swapcycle/internal/domain/search/filter"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{
	"landing", "login", "register", "search", "listing", "online",
	"my_listings", "listing_form", "trades", "profile", "error",
}

type templates struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"price":  listing.FormatPrice,
	"add":    func(a, b int) int { return a + b },
	"sub":    func(a, b int) int { return a - b },
	"itoa":   func(v int64) string { return strconv.FormatInt(v, 10) },
	"lower":  strings.ToLower,
	"plural": func(k listing.Kind) string { return k.Plural() },
	"pageURL": func(base string, values url.Values, page int) string {
		q := url.Values{}
		for k, v := range values {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(page))
		return base + "?" + q.Encode()
	},
	"selectedID": func(p *int64, id int64) bool { return p != nil && *p == id },
	"deref": func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	},
	"km": func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', 1, 64) + " km"
	},
	"filterValue": func(f filter.Filter, key string) string { return f.Get(filter.Key(key)) },
}

func parseTemplates() (*templates, error) {
	t := &templates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		t.pages[name] = tpl
	}
	return t, nil
}

// execute renders into a buffer first so a template failure never sends a
// half-written page.
func (t *templates) execute(w http.ResponseWriter, status int, name string, data page) error {
	tpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
