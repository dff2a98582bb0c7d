package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miladsoleymani/natsflow/core"
)

func TestRender_Substitutes(t *testing.T) {
	render := core.Render(map[string]any{"env": "prod", "n": 3})

	out, err := render("orders.{{ .env }}.{{ .n }}")
	require.NoError(t, err)
	assert.Equal(t, "orders.prod.3", out)
}

func TestRender_MissingKey(t *testing.T) {
	render := core.Render(map[string]any{})

	_, err := render("{{ .missing }}")
	assert.Error(t, err)
}

func TestRender_HeaderKeys(t *testing.T) {
	render := core.Render(map[string]any{"tenant": "acme", "id": "42"})

	src, err := core.ResolveSource(map[string]any{
		"headers": map[string]any{"x-{{ .tenant }}-trace": "{{ .id }}"},
		"data":    "payload",
	}, nil, render)
	require.NoError(t, err)

	record, err := core.First(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, record.Headers["x-acme-trace"])
	assert.Equal(t, []byte("payload"), record.Data)
}

func TestRenderSubject_Empty(t *testing.T) {
	_, err := core.RenderSubject("", core.NopRender)
	assert.ErrorIs(t, err, core.ErrEmptySubject)
}

func TestRenderSubject_Rendered(t *testing.T) {
	render := core.Render(map[string]any{"team": "billing"})

	subject, err := core.RenderSubject("events.{{ .team }}", render)
	require.NoError(t, err)
	assert.Equal(t, "events.billing", subject)
}
