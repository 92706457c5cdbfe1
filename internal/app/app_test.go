package app

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/rackup/internal/rack"
)

func newStack(t *testing.T) *rack.Dispatcher {
	t.Helper()
	catalog := rack.NewCatalog()
	if err := Install(catalog); err != nil {
		t.Fatalf("install: %v", err)
	}
	registry := rack.NewRegistry(catalog)
	registry.Add("Format", "", nil)
	registry.Add("App", "", nil)
	if !registry.InsertBefore("App", "Api", "") {
		t.Fatalf("insert Api failed")
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	d, err := rack.NewDispatcher(rack.Options{Registry: registry, Logger: logger})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return d
}

func request(method, uri string) rack.Env {
	_, qs, _ := strings.Cut(uri, "?")
	return rack.Env{
		rack.KeyRequestMethod: method,
		rack.KeyRequestURI:    uri,
		rack.KeyQueryString:   qs,
		rack.KeyHTTPHost:      "localhost",
	}
}

func TestAppGreetsOnRoot(t *testing.T) {
	d := newStack(t)
	resp, err := d.Run(request("GET", "/?name=Ada"), nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Status != 200 || string(resp.Bytes()) != "Hello, Ada\n" {
		t.Fatalf("unexpected response %d %q", resp.Status, resp.Bytes())
	}
	if ct := resp.Headers.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Fatalf("App content type should win over Format default, got %q", ct)
	}
}

func TestAppNotFoundElsewhere(t *testing.T) {
	d := newStack(t)
	resp, err := d.Run(request("GET", "/missing"), nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Status != 404 {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestAPIEchoesRequest(t *testing.T) {
	d := newStack(t)
	env := request("GET", "/api/widgets.json?page=2")
	env[rack.KeyHTTPRequestedWith] = "XMLHttpRequest"

	resp, err := d.Run(env, nil, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if resp.Headers.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", resp.Headers.Get("Content-Type"))
	}
	var payload echoPayload
	if err := json.Unmarshal(resp.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Method != "GET" || payload.Path != "/widgets" || !payload.XHR {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if got := payload.Params["page"]; len(got) != 1 || got[0] != "2" {
		t.Fatalf("unexpected params %v", payload.Params)
	}
}

func TestFormatStripsExtension(t *testing.T) {
	var pathInfo, format string
	f := NewFormat(rack.HandlerFunc(func(env rack.Env) rack.Response {
		pathInfo = env.String(rack.KeyPathInfo)
		format = env.String(KeyFormat)
		return rack.NewResponse(200, nil, "<x/>")
	}))

	resp := f.Call(rack.Env{rack.KeyPathInfo: "/feed.xml"})
	if pathInfo != "/feed" || format != "xml" {
		t.Fatalf("unexpected path/format: %s %s", pathInfo, format)
	}
	if resp.Headers.Get("Content-Type") != "application/xml" {
		t.Fatalf("default content type not applied: %q", resp.Headers.Get("Content-Type"))
	}

	f.Call(rack.Env{rack.KeyPathInfo: "/archive.tar"})
	if pathInfo != "/archive.tar" || format != "html" {
		t.Fatalf("unknown extensions stay in the path: %s %s", pathInfo, format)
	}
}
