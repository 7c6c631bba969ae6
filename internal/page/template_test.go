package page

import (
	"context"
	goimage "image"
	"testing"

	"github.com/dmorgan81/fluxgen/internal/generate"
	"github.com/dmorgan81/fluxgen/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateEmptyForm(t *testing.T) {
	tmpl, err := NewTemplator(nil)
	require.NoError(t, err)

	html, err := tmpl.Template(context.Background(), NewParams(model.Default))
	require.NoError(t, err)

	body := string(html)
	assert.Contains(t, body, `<option value="FLUX.1-schnell" selected>`)
	assert.Contains(t, body, `<option value="FLUX.1-pro">`)
	assert.Contains(t, body, `name="count" type="range" min="1" max="10" value="4"`)
	assert.Contains(t, body, `name="steps" type="range" min="1" max="20" value="10"`)
	assert.Contains(t, body, "Enter a prompt and API key, then click Generate to create images")
}

func TestTemplateTiles(t *testing.T) {
	results := []generate.Result{
		{Image: goimage.NewGray(goimage.Rect(0, 0, 4, 3)), Data: []byte("one"), MimeType: "image/png"},
		{Image: goimage.NewGray(goimage.Rect(0, 0, 2, 2)), Data: []byte("two"), MimeType: "image/jpeg"},
	}
	tiles := Tiles(results)
	require.Len(t, tiles, 2)
	assert.Equal(t, "Generated Image 1", tiles[0].Caption)
	assert.Equal(t, 4, tiles[0].Width)
	assert.Equal(t, 3, tiles[0].Height)
	assert.Equal(t, "generated_image_2.png", tiles[1].Link.Filename)
	assert.Equal(t, "data:image/jpeg;base64,dHdv", string(tiles[1].Src))

	params := NewParams(model.FluxPro)
	params.Prompt = "a <red> cube"
	params.Tiles = tiles
	params.Notices = []Notice{{Level: "error", Message: "image download failed: timeout"}}

	tmpl, err := NewTemplator(nil)
	require.NoError(t, err)
	html, err := tmpl.Template(context.Background(), params)
	require.NoError(t, err)

	body := string(html)
	assert.Contains(t, body, "a &lt;red&gt; cube")
	assert.Contains(t, body, `download="generated_image_1.png"`)
	assert.Contains(t, body, `src="data:image/png;base64,b25l"`)
	assert.Contains(t, body, "image download failed: timeout")
	assert.NotContains(t, body, "click Generate to create images")
}
