// Package view renders the admin panel pages from embedded HTML
// templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/ovee/byceps/internal/domain/authz"
	"github.com/ovee/byceps/internal/domain/user"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Page is the envelope every template receives. Data carries the
// page-specific view model.
type Page struct {
	Title       string
	ScreenName  string
	Permissions authz.PermissionSet
	Flash       string
	Data        any
}

// Renderer holds the parsed page templates.
type Renderer struct {
	pages map[string]*template.Template
}

var pageNames = []string{
	"login",
	"error",
	"users_index",
	"user_detail",
	"user_create",
	"servers_index",
	"server_detail",
	"server_register",
	"setting_form",
}

// NewRenderer parses the embedded templates. Each page is combined with
// the shared layout.
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.tmpl").Funcs(funcMap()).ParseFS(
			templatesFS,
			"templates/layout.tmpl",
			fmt.Sprintf("templates/%s.tmpl", name),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %q: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// HTML renders a page to the response writer.
func (r *Renderer) HTML(w http.ResponseWriter, status int, page string, data Page) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown template %q", page)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "layout.tmpl", data)
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"fallback":   fallback,
		"dash":       func(s string) string { return fallback(s, "–") },
		"datetime":   formatDateTime,
		"date":       formatDate,
		"statusTag":  statusTag,
		"filterName": filterName,
		"can":        can,
		"pages":      pageWindow,
		"add":        func(a, b int64) int64 { return a + b },
		"sub":        func(a, b int64) int64 { return a - b },
	}
}

// fallback returns alt when the value is empty.
func fallback(s, alt string) string {
	if s == "" {
		return alt
	}
	return s
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "–"
	}
	return t.Format("02.01.2006 15:04")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "–"
	}
	return t.Format("02.01.2006")
}

// statusTag renders a colored status label. The status strings of both
// users and guest servers map onto a small fixed palette.
func statusTag(status string) template.HTML {
	color := map[string]string{
		"active":        "success",
		"approved":      "success",
		"checked_in":    "info",
		"uninitialized": "light",
		"pending":       "light",
		"suspended":     "warning",
		"deleted":       "danger",
		"checked_out":   "muted",
	}[status]
	if color == "" {
		color = "light"
	}
	return template.HTML(fmt.Sprintf(`<span class="tag tag--%s">%s</span>`,
		template.HTMLEscapeString(color), template.HTMLEscapeString(status)))
}

// filterName returns the query value for a status filter tab.
func filterName(f user.StatusFilter) string {
	return f.String()
}

// can reports whether the permission set contains the named permission.
func can(perms authz.PermissionSet, name string) bool {
	return perms.Has(authz.Permission(name))
}

// pageWindow returns the page numbers to offer as pagination links, at
// most two on either side of the current page.
func pageWindow(p *user.Pagination) []int64 {
	if p == nil || p.TotalPages <= 1 {
		return nil
	}
	first := p.Page - 2
	if first < 1 {
		first = 1
	}
	last := p.Page + 2
	if last > p.TotalPages {
		last = p.TotalPages
	}
	window := make([]int64, 0, last-first+1)
	for n := first; n <= last; n++ {
		window = append(window, n)
	}
	return window
}
