package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/matzehuels/doublediamond/pkg/buildinfo"
	"github.com/matzehuels/doublediamond/pkg/config"
	"github.com/matzehuels/doublediamond/pkg/errors"
	"github.com/matzehuels/doublediamond/pkg/layout"
	"github.com/matzehuels/doublediamond/pkg/pipeline"
)

// =============================================================================
// Page
// =============================================================================

type pageField struct {
	Key     string
	Label   string
	Value   string
	Numeric bool
}

type pageGroup struct {
	Name   string
	Fields []pageField
}

type pageData struct {
	Groups   []pageGroup
	SVG      template.HTML
	Warnings []layout.Warning
}

var fieldLabels = map[string]string{
	config.KeyWidth:       "Width",
	config.KeyHeight:      "Height",
	config.KeyMargin:      "Margin",
	config.KeyGap:         "Gap",
	config.KeyTitleText:   "Title",
	config.KeyTitleSize:   "Title size",
	config.KeySubText:     "Subtitle",
	config.KeySubSize:     "Subtitle size",
	config.KeyLabelSize:   "Label size",
	config.KeyStrokeWidth: "Stroke width",
	config.KeyStrokeColor: "Stroke color",
	config.KeyTextColor:   "Text color",
}

var fieldGroups = func() [][2]any {
	g := [][2]any{
		{"Canvas", []string{config.KeyWidth, config.KeyHeight, config.KeyMargin, config.KeyGap}},
		{"Text", []string{config.KeyTitleText, config.KeyTitleSize, config.KeySubText, config.KeySubSize, config.KeyLabelSize}},
		{"Style", []string{config.KeyStrokeWidth, config.KeyStrokeColor, config.KeyTextColor}},
	}
	for i := 0; i < config.PhaseCount; i++ {
		g = append(g, [2]any{fmt.Sprintf("Phase %d", i+1), []string{config.PhaseLabelKey(i), config.PhaseColorKey(i)}})
	}
	return g
}()

func buildGroups(in config.Input) []pageGroup {
	groups := make([]pageGroup, 0, len(fieldGroups))
	for _, g := range fieldGroups {
		group := pageGroup{Name: g[0].(string)}
		for _, key := range g[1].([]string) {
			label, ok := fieldLabels[key]
			if !ok {
				label = "Label"
				if key[len(key)-5:] == "Color" {
					label = "Color"
				}
			}
			group.Fields = append(group.Fields, pageField{
				Key:     key,
				Label:   label,
				Value:   in[key],
				Numeric: config.IsNumeric(key),
			})
		}
		groups = append(groups, group)
	}
	return groups
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	in := s.defaults.Clone()
	if len(r.URL.Query()) > 0 {
		in = inputFromQuery(r.URL.Query())
	}

	res, err := s.runner.Generate(r.Context(), in.Resolve(), pipeline.Options{Formats: []string{pipeline.FormatSVG}})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := pageData{
		Groups: buildGroups(in),
		// Every user value in the SVG is XML-escaped by the renderer.
		SVG:      template.HTML(res.Artifacts[pipeline.FormatSVG]),
		Warnings: res.Geometry.Warnings,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

// =============================================================================
// API
// =============================================================================

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.Generate(r.Context(), inputFromQuery(r.URL.Query()).Resolve(),
		pipeline.Options{Formats: []string{pipeline.FormatSVG}})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentType(pipeline.FormatSVG))
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Layout-Warnings", fmt.Sprint(len(res.Geometry.Warnings)))
	w.Write(res.Artifacts[pipeline.FormatSVG])
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Generate(r.Context(), inputFromQuery(q).Resolve(), pipeline.Options{
		Formats: []string{format},
		Prolog:  true,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := pipeline.ExportFilename(pipeline.DefaultExportPrefix, s.now(), format)
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(res.Artifacts[format])
}

type renderRequest struct {
	Input   map[string]string `json:"input"`
	Formats []string          `json:"formats,omitempty"`
	Scale   float64           `json:"scale,omitempty"`
}

type renderResponse struct {
	ConfigHash string           `json:"config_hash"`
	SVG        string           `json:"svg,omitempty"`
	PNG        []byte           `json:"png,omitempty"`
	Geometry   layout.Geometry  `json:"geometry"`
	Warnings   []layout.Warning `json:"warnings"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}

	in := config.Input{}
	for k, v := range req.Input {
		if err := in.Set(k, v); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	formats := req.Formats
	if len(formats) == 0 {
		formats = []string{pipeline.FormatSVG}
	}
	for _, f := range formats {
		if f == pipeline.FormatJSON {
			s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "json is the response itself; request svg or png"))
			return
		}
	}

	res, err := s.runner.Generate(r.Context(), in.Resolve(), pipeline.Options{Formats: formats, Scale: req.Scale})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	warnings := res.Geometry.Warnings
	if warnings == nil {
		warnings = []layout.Warning{}
	}
	writeJSON(w, http.StatusOK, renderResponse{
		ConfigHash: res.ConfigHash,
		SVG:        string(res.Artifacts[pipeline.FormatSVG]),
		PNG:        res.Artifacts[pipeline.FormatPNG],
		Geometry:   res.Geometry,
		Warnings:   warnings,
	})
}

type defaultsResponse struct {
	Keys  []string     `json:"keys"`
	Input config.Input `json:"input"`
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, defaultsResponse{Keys: config.Keys(), Input: s.defaults})
}

type healthResponse struct {
	Status string `json:"status"`
	buildinfo.Info
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Info: buildinfo.Get()})
}

// =============================================================================
// Helpers
// =============================================================================

// inputFromQuery reads form fields from a query string. Parameters that are
// not form fields (format, cache busters) are ignored.
func inputFromQuery(q url.Values) config.Input {
	in := config.Input{}
	for k, vs := range q {
		if len(vs) == 0 {
			continue
		}
		_ = in.Set(k, vs[0])
	}
	return in
}

type errorBody struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Code: code, Message: msg, RequestID: RequestID(r.Context())},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
