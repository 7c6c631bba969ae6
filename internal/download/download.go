package download

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

const prefix = "data:image/png;base64,"

var ErrNotDataURI = errors.New("not a png data uri")

var linkTmpl = template.Must(template.New("link").Parse(
	`<a href="{{.URI}}" download="{{.Filename}}"><button style="padding: 5px 10px; background-color: #4CAF50; color: white; border: none; border-radius: 4px; cursor: pointer; margin: 5px 0;">Download Image</button></a>`))

type Link struct {
	Filename string
	URI      template.URL
}

func Encode(data []byte, filename string) Link {
	return Link{
		Filename: filename,
		URI:      template.URL(prefix + base64.StdEncoding.EncodeToString(data)),
	}
}

// Filename is the suggested save name for the image at the zero-based index.
func Filename(index int) string {
	return fmt.Sprintf("generated_image_%d.png", index+1)
}

func Decode(uri string) ([]byte, error) {
	payload, ok := strings.CutPrefix(uri, prefix)
	if !ok {
		return nil, ErrNotDataURI
	}
	return base64.StdEncoding.DecodeString(payload)
}

func (l Link) HTML() template.HTML {
	var b strings.Builder
	// the template only interpolates a string and a template.URL, so Execute cannot fail
	_ = linkTmpl.Execute(&b, l)
	return template.HTML(b.String())
}
