package render

import (
	"github.com/flosch/pongo2/v6"

	"github.com/haninge-digit/zeebe-report/internal/config"
	"github.com/haninge-digit/zeebe-report/internal/domain"
)

// PongoRenderer renders reports with a Jinja2 style template
type PongoRenderer struct {
	name     string
	template *pongo2.Template
}

// NewPongoRenderer loads the configured template, from Dir when set and
// from BaseURL otherwise. A template that cannot be loaded or parsed is
// returned as a RENDER_2001 error.
func NewPongoRenderer(cfg config.TemplateConfig) (*PongoRenderer, error) {
	var loader pongo2.TemplateLoader
	if cfg.Dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(cfg.Dir)
		if err != nil {
			return nil, domain.ErrTemplateMissing(cfg.Name, err)
		}
		loader = local
	} else {
		loader = NewHTTPTemplateLoader(cfg.BaseURL, cfg.Timeout)
	}

	set := pongo2.NewSet("report", orderedSumsLoader{TemplateLoader: loader})
	tpl, err := set.FromFile(cfg.Name)
	if err != nil {
		return nil, domain.ErrTemplateMissing(cfg.Name, err)
	}

	return &PongoRenderer{name: cfg.Name, template: tpl}, nil
}

// Render fills the template with the header and the process totals.
//
// The template sees: header, sums (process -> count), rows (sorted
// ProcessCount slice with Process and Count) and total. Loops over sums,
// written either as "for k, v in sums" or "for k, v in sums.items()",
// iterate in process name order.
func (r *PongoRenderer) Render(rc domain.ReportContext) (string, error) {
	html, err := r.template.Execute(pongo2.Context{
		"header": rc.Header,
		"sums":   map[string]int(rc.Totals.Clone()),
		"rows":   rc.Totals.Sorted(),
		"total":  rc.Totals.Sum(),
	})
	if err != nil {
		return "", domain.ErrRenderFailed(r.name, err)
	}
	return html, nil
}
