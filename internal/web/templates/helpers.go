package templates

import (
	"net/url"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/csvdash/internal/chart"
	"github.com/JonMunkholm/csvdash/internal/dashboard"
)

// link builds a same-page URL with q, overriding the given keys. An empty
// value removes its key.
func link(path string, q url.Values, kv ...string) string {
	out := url.Values{}
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			out.Del(kv[i])
			continue
		}
		out.Set(kv[i], kv[i+1])
	}
	if len(out) == 0 {
		return path
	}
	return path + "?" + out.Encode()
}

func hasFile(v *dashboard.View) bool {
	return v != nil && v.HasFile
}

// themeCSS injects the picked colors. Theme values are validated hex
// colors, so they are written without escaping.
func themeCSS(t dashboard.Theme) string {
	return `<style>body { background-color: ` + t.Background + `; color: ` + t.Foreground + `; }</style>`
}

func selectSize(columns int) string {
	return strconv.Itoa(min(max(columns, 2), 10))
}

// sortHref toggles the grid sort: a column sorts ascending first, then
// descending.
func sortHref(q url.Values, name string) templ.SafeURL {
	dir := "asc"
	if q.Get("sort") == name && q.Get("dir") != "desc" {
		dir = "desc"
	}
	return templ.SafeURL(link("/", q, "sort", name, "dir", dir))
}

func sortLabel(q url.Values, name string) string {
	if q.Get("sort") != name {
		return name
	}
	if q.Get("dir") == "desc" {
		return name + " ▼"
	}
	return name + " ▲"
}

func simpleChartURL(v *dashboard.View) templ.SafeURL {
	return templ.SafeURL(link("/chart", nil, "kind", string(v.ChartKind), "column", v.PieColumn))
}

func scatterURL(v *dashboard.View) templ.SafeURL {
	return templ.SafeURL(link("/chart", nil, "kind", string(chart.KindScatter), "enabled", "1", "x", v.X, "y", v.Y))
}
