package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/dmorgan81/fluxgen/internal/generate"
	"github.com/dmorgan81/fluxgen/internal/model"
	"github.com/dmorgan81/fluxgen/internal/page"
	"github.com/dmorgan81/fluxgen/internal/param"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webFixture struct {
	srv     *httptest.Server
	factory *recordingFactory
	logs    *bytes.Buffer
}

func newWebFixture(t *testing.T, gen *fakeGenerator, fetcher *fakeFetcher, configuredKey string) *webFixture {
	t.Helper()
	keys := param.StaticFetcher{}
	if configuredKey != "" {
		keys["/fluxgen/key"] = configuredKey
	}
	return newWebFixtureWithKeys(t, gen, fetcher, keys, configuredKey != "")
}

func newWebFixtureWithKeys(t *testing.T, gen *fakeGenerator, fetcher *fakeFetcher, keys param.Fetcher, hasKey bool) *webFixture {
	t.Helper()
	factory := &recordingFactory{gen: gen}
	templator, err := page.NewTemplator(nil)
	require.NoError(t, err)
	logs := &bytes.Buffer{}

	h := &Web{
		orchestrator: generate.NewOrchestrator(fetcher),
		factory:      factory.factory,
		templator:    templator,
		logger:       testLogger(logs),
		params:       keys,
		keyPath:      "/fluxgen/key",
		hasKey:       hasKey,
		model:        model.Default,
	}
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &webFixture{srv: srv, factory: factory, logs: logs}
}

func (f *webFixture) post(t *testing.T, form url.Values) string {
	t.Helper()
	resp, err := http.PostForm(f.srv.URL+"/generate", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestWebIndex(t *testing.T) {
	f := newWebFixture(t, &fakeGenerator{}, &fakeFetcher{}, "")

	resp, err := http.Get(f.srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), `<option value="FLUX.1-schnell" selected>`)
	assert.Contains(t, string(body), hint)
}

func TestWebHealthz(t *testing.T) {
	f := newWebFixture(t, &fakeGenerator{}, &fakeFetcher{}, "")
	resp, err := http.Get(f.srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebGenerate(t *testing.T) {
	data := onePixelPNG(t)
	gen := &fakeGenerator{descriptors: descriptors("u1", "u2", "u3", "u4")}
	f := newWebFixture(t, gen, &fakeFetcher{data: data}, "")

	body := f.post(t, url.Values{
		"api_key": {"sk-form"},
		"model":   {"FLUX1.1-pro"},
		"prompt":  {"a red cube"},
		"count":   {"4"},
		"steps":   {"10"},
	})

	assert.Equal(t, []string{"sk-form"}, f.factory.keys)
	assert.Equal(t, "black-forest-labs/FLUX.1.1-pro", gen.last.Model)
	assert.Equal(t, 4, gen.last.N)
	assert.Equal(t, 10, gen.last.Steps)
	for i := 1; i <= 4; i++ {
		assert.Contains(t, body, "Generated Image "+strconv.Itoa(i))
	}
	assert.Contains(t, body, `download="generated_image_4.png"`)
	assert.Contains(t, body, `<option value="FLUX1.1-pro" selected>`)
	assert.NotContains(t, body, "sk-form")
	assert.NotContains(t, f.logs.String(), "sk-form")
}

func TestWebGenerateFallsBackToConfiguredKey(t *testing.T) {
	gen := &fakeGenerator{descriptors: descriptors("u1")}
	f := newWebFixture(t, gen, &fakeFetcher{data: onePixelPNG(t)}, "sk-config")

	body := f.post(t, url.Values{"prompt": {"a red cube"}})
	assert.Equal(t, []string{"sk-config"}, f.factory.keys)
	assert.Contains(t, body, "Generated Image 1")
	assert.Contains(t, body, "using configured key")
}

func TestWebGenerateConfiguredKeyLookupFails(t *testing.T) {
	gen := &fakeGenerator{descriptors: descriptors("u1")}
	f := newWebFixtureWithKeys(t, gen, &fakeFetcher{data: onePixelPNG(t)}, param.StaticFetcher{}, true)

	body := f.post(t, url.Values{"prompt": {"a red cube"}})
	assert.Contains(t, body, "Error setting up client: parameter not found")
	assert.NotContains(t, body, hint)
	assert.Zero(t, gen.calls)
	assert.Empty(t, f.factory.keys)
}

func TestWebGenerateFormKeySkipsConfiguredLookup(t *testing.T) {
	gen := &fakeGenerator{descriptors: descriptors("u1")}
	f := newWebFixtureWithKeys(t, gen, &fakeFetcher{data: onePixelPNG(t)}, param.StaticFetcher{}, true)

	body := f.post(t, url.Values{"api_key": {"sk-form"}, "prompt": {"a red cube"}})
	assert.Equal(t, []string{"sk-form"}, f.factory.keys)
	assert.Contains(t, body, "Generated Image 1")
}

func TestWebGenerateNeedsPromptAndKey(t *testing.T) {
	gen := &fakeGenerator{}
	f := newWebFixture(t, gen, &fakeFetcher{}, "")

	for _, form := range []url.Values{
		{"prompt": {"a red cube"}},
		{"api_key": {"sk"}, "prompt": {"  "}},
	} {
		body := f.post(t, form)
		assert.Contains(t, body, hint)
	}
	assert.Zero(t, gen.calls)
	assert.Empty(t, f.factory.keys)
}

func TestWebGenerateReportsErrors(t *testing.T) {
	t.Run("generation failure", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("401 invalid api key")}
		f := newWebFixture(t, gen, &fakeFetcher{}, "")

		body := f.post(t, url.Values{"api_key": {"sk"}, "prompt": {"p"}})
		assert.Contains(t, body, "Error generating images: 401 invalid api key")
		assert.NotContains(t, body, "Generated Image 1")
		assert.NotContains(t, body, "<figure")
	})

	t.Run("partial fetch failure", func(t *testing.T) {
		gen := &fakeGenerator{descriptors: descriptors("u1", "u2", "u3", "u4")}
		fetcher := &fakeFetcher{data: onePixelPNG(t), fail: map[string]error{"u3": errors.New("timeout")}}
		f := newWebFixture(t, gen, fetcher, "")

		body := f.post(t, url.Values{"api_key": {"sk"}, "prompt": {"p"}})
		assert.Contains(t, body, "Error downloading image: timeout")
		assert.Contains(t, body, "Generated Image 3")
		assert.NotContains(t, body, "Generated Image 4")
	})

	t.Run("out of range", func(t *testing.T) {
		gen := &fakeGenerator{}
		f := newWebFixture(t, gen, &fakeFetcher{}, "")

		body := f.post(t, url.Values{"api_key": {"sk"}, "prompt": {"p"}, "steps": {"50"}})
		assert.Contains(t, body, "steps must be between 1 and 20")
		assert.Zero(t, gen.calls)
	})
}

func TestWebRejectsGetOnGenerate(t *testing.T) {
	f := newWebFixture(t, &fakeGenerator{}, &fakeFetcher{}, "")
	resp, err := http.Get(f.srv.URL + "/generate")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Status, "405"))
}
