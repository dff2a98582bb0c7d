package core

import (
	"bytes"
	"fmt"
	"text/template"
)

// RenderFunc resolves a templated string against caller-supplied variables.
// Every user-supplied string passes through a RenderFunc before use.
type RenderFunc func(s string) (string, error)

// NopRender returns its input unchanged.
func NopRender(s string) (string, error) { return s, nil }

// Render builds a RenderFunc that evaluates each string as a text/template
// against vars.
//
//	render := core.Render(map[string]any{"env": "prod"})
//	subject, _ := render("orders.{{ .env }}")
func Render(vars map[string]any) RenderFunc {
	return func(s string) (string, error) {
		tpl, err := template.New("").Option("missingkey=error").Parse(s)
		if err != nil {
			return "", fmt.Errorf("natsflow: parse template %q: %w", s, err)
		}
		var buf bytes.Buffer
		if err := tpl.Execute(&buf, vars); err != nil {
			return "", fmt.Errorf("natsflow: render %q: %w", s, err)
		}
		return buf.String(), nil
	}
}

// renderAny applies render to every string nested inside v, descending into
// maps and slices. Non-string leaves pass through untouched.
func renderAny(v any, render RenderFunc) (any, error) {
	switch t := v.(type) {
	case string:
		return render(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			key, err := render(k)
			if err != nil {
				return nil, err
			}
			rendered, err := renderAny(elem, render)
			if err != nil {
				return nil, err
			}
			out[key] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			rendered, err := renderAny(elem, render)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

// RenderSubject renders a subject and rejects empty results.
func RenderSubject(subject string, render RenderFunc) (string, error) {
	rendered, err := render(subject)
	if err != nil {
		return "", err
	}
	if rendered == "" {
		return "", ErrEmptySubject
	}
	return rendered, nil
}
