package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvdash/internal/chart"
	"github.com/JonMunkholm/csvdash/internal/dashboard"
	"github.com/JonMunkholm/csvdash/internal/logging"
	"github.com/JonMunkholm/csvdash/internal/session"
)

// sessionID returns the id the session middleware attached.
func sessionID(r *http.Request) string {
	return session.IDFromContext(r.Context())
}

// renderHTML writes c with the given status. The status line is already
// sent when rendering fails, so the error is only logged.
func renderHTML(w http.ResponseWriter, r *http.Request, status int, name string, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render failed", "template", name, "error", err)
	}
}

// parseBool accepts the values checkboxes and query strings use.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// parseSort reads the grid sort column and direction.
func parseSort(q url.Values) (col string, desc bool) {
	col = strings.TrimSpace(q.Get("sort"))
	if col == "" {
		return "", false
	}
	return col, strings.EqualFold(strings.TrimSpace(q.Get("dir")), "desc")
}

// parseInputs reads the page controls from the query string.
func parseInputs(q url.Values) dashboard.Inputs {
	sortBy, desc := parseSort(q)
	return dashboard.Inputs{
		ShowRaw:    parseBool(q.Get("raw")),
		Background: q.Get("bg"),
		Foreground: q.Get("fg"),
		SortBy:     sortBy,
		Desc:       desc,
		Chart:      q.Get("chart"),
		PieColumn:  q.Get("pie"),
		Advanced:   parseBool(q.Get("advanced")),
		X:          q.Get("x"),
		Y:          q.Get("y"),
	}
}

// parseChartParams reads a /chart request.
func parseChartParams(q url.Values) chart.Params {
	sortBy, desc := parseSort(q)
	return chart.Params{
		Kind:    q.Get("kind"),
		Column:  q.Get("column"),
		X:       q.Get("x"),
		Y:       q.Get("y"),
		Enabled: parseBool(q.Get("enabled")),
		SortBy:  sortBy,
		Desc:    desc,
	}
}

// returnURL sends a form post back to the page with the controls it was
// submitted from. Only the query string is taken from the client.
func returnURL(r *http.Request) string {
	q, err := url.ParseQuery(r.FormValue("return"))
	if err != nil || len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}
