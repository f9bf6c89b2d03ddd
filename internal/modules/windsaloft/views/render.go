package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
)

//go:embed templates
var viewsFS embed.FS

var forecastTmpl *template.Template

// loadTemplatesFromFS loads page templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	forecastTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// ForecastData is the view model for the forecast page.
type ForecastData struct {
	Region       string
	LowAltitude  string
	HighAltitude string
	Labels       []string
	Rows         [][]string
}

func RenderForecast(w io.Writer, data *ForecastData) error {
	if forecastTmpl == nil {
		return errors.New("forecast template not loaded: call views.LoadTemplates during startup")
	}
	return forecastTmpl.ExecuteTemplate(w, "forecast.html", data)
}
