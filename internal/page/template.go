package page

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"sync"

	"github.com/dmorgan81/fluxgen/internal/download"
	"github.com/dmorgan81/fluxgen/internal/generate"
	"github.com/dmorgan81/fluxgen/internal/log"
	"github.com/dmorgan81/fluxgen/internal/model"
	"github.com/samber/do"
	"github.com/samber/lo"
)

//go:embed assets/index.html
var indexTmpl string

type Option struct {
	Label    model.Label
	Selected bool
}

type Notice struct {
	Level   string
	Message string
}

type Tile struct {
	Caption string
	Src     template.URL
	Width   int
	Height  int
	Link    download.Link
}

type Params struct {
	Title     string
	Action    string
	Static    bool
	Models    []Option
	Prompt    string
	Steps     int
	Count     int
	HasAPIKey bool
	Notices   []Notice
	Tiles     []Tile
}

// NewParams returns form defaults with the given model preselected.
func NewParams(selected model.Label) Params {
	return Params{
		Title:  "Together AI Image Generator",
		Action: "/generate",
		Models: Options(selected),
		Steps:  generate.DefaultSteps,
		Count:  generate.DefaultCount,
	}
}

func Options(selected model.Label) []Option {
	return lo.Map(model.Labels(), func(l model.Label, _ int) Option {
		return Option{Label: l, Selected: l == selected}
	})
}

func Tiles(images []generate.Result) []Tile {
	return lo.Map(images, func(r generate.Result, i int) Tile {
		bounds := r.Image.Bounds()
		return Tile{
			Caption: fmt.Sprintf("Generated Image %d", i+1),
			Src:     template.URL("data:" + r.MimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data)),
			Width:   bounds.Dx(),
			Height:  bounds.Dy(),
			Link:    download.Encode(r.Data, download.Filename(i)),
		}
	})
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator(_ *do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("index").Parse(indexTmpl))
	})

	logger := log.FromContextOrDiscard(ctx).WithGroup("templator")
	logger.Info("rendering page", "tiles", len(params.Tiles), "notices", len(params.Notices))

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
