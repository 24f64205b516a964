// Package templates holds the HTML components of the dashboard page.
//
// Components are written in .templ files and compiled to the _templ.go
// files next to them with `templ generate`.
package templates

//go:generate templ generate

import (
	"net/url"

	"github.com/JonMunkholm/csvdash/internal/dashboard"
)

const (
	Title       = "Dashboard de Dados de Turismo do Data.Rio"
	Description = "Este dashboard foi desenvolvido para explorar dados de turismo do portal Data.Rio, " +
		"permitindo aos usuários realizar upload de arquivos CSV, filtrar e selecionar dados específicos, " +
		"visualizar informações através de gráficos e tabelas interativas, e personalizar a interface."

	// UploadPromptText is the notice shown before any upload.
	UploadPromptText = "Por favor, faça o upload de um arquivo CSV para começar."
)

// PageData is what the dashboard page is rendered from.
type PageData struct {
	View  *dashboard.View        // nil when nothing could be drawn
	Error *dashboard.UserMessage // shown where drawing stopped
	Query url.Values             // current control values
}

const baseStyle = `<style>
body { font-family: system-ui, sans-serif; margin: 0; }
.layout { display: flex; min-height: 100vh; }
.sidebar { width: 300px; padding: 1rem; border-right: 1px solid #ddd; }
.sidebar label { display: block; margin: .5rem 0; }
main { flex: 1; padding: 1rem 2rem; overflow-x: auto; }
.grid { max-height: 480px; overflow: auto; border: 1px solid #ddd; }
.grid table { border-collapse: collapse; width: 100%; }
.grid th, .grid td { padding: .25rem .5rem; border-bottom: 1px solid #eee; text-align: left; }
.grid th { position: sticky; top: 0; background: #f6f6f6; }
iframe.chart { width: 100%; height: 460px; border: 0; }
.alert { padding: .75rem 1rem; border-radius: 4px; margin: 1rem 0; }
.alert-error { background: #fdecea; color: #611a15; }
.alert-warning { background: #fff4e5; color: #663c00; }
.success { color: #1e7e34; }
.muted { color: #777; font-size: .85em; }
</style>`
