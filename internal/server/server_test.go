package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb/geojson"

	"github.com/woozymasta/dzmeasure/internal/config"
)

const lineFeature = `{"type":"Feature","id":"l1","geometry":{"type":"LineString","coordinates":[[0,0],[300,0]]},"properties":{}}`

const squareFeature = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	s, err := NewServerContext(context.Background(), nil, &config.Config{Projection: "planar"})
	if err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(RequestLogger(s.Routes()))
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func values(t *testing.T, fc *geojson.FeatureCollection) []string {
	t.Helper()

	var ret []string
	for _, f := range fc.Features {
		ret = append(ret, f.Properties.MustString("value"))
	}
	return ret
}

func TestHandleIndex(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("unexpected content type %q", ct)
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleMeasure(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"default", "", []string{"0.0 m", "300.0 m", "300.0 m"}},
		{"no segments", "?segment=false", []string{"0.0 m", "300.0 m"}},
		{"centimeters", "?length=cm", []string{"0 cm", "30000 cm", "30000 cm"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/measure"+tt.query, lineFeature)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("unexpected status %d", resp.StatusCode)
			}

			var fc geojson.FeatureCollection
			if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, values(t, &fc)); diff != "" {
				t.Errorf("labels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleMeasureErrors(t *testing.T) {
	ts := newTestServer(t)

	if resp := post(t, ts.URL+"/api/measure?length=furlong", lineFeature); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad unit: expected 400, got %d", resp.StatusCode)
	}

	resp := post(t, ts.URL+"/api/measure", "{not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", resp.StatusCode)
	}
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error == "" {
		t.Error("missing error message")
	}

	get, err := http.Get(ts.URL + "/api/measure")
	if err != nil {
		t.Fatal(err)
	}
	get.Body.Close()
	if get.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", get.StatusCode)
	}
	if allow := get.Header.Get("Allow"); allow != http.MethodPost {
		t.Errorf("unexpected Allow header %q", allow)
	}
}

func TestHandleConvert(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/convert?value=1.5&from=km&to=m&compact=true")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, buf.String())
	}
	if strings.ContainsAny(buf.String(), "\n ") {
		t.Errorf("compact response is not minified: %q", buf.String())
	}

	var got convertResponse
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(convertResponse{From: "KM", To: "M", Value: 1500}, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	for _, query := range []string{"value=x&from=m&to=km", "value=1&from=m&to=m2"} {
		resp, err := http.Get(ts.URL + "/api/convert?" + query)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, resp.StatusCode)
		}
	}
}

func TestHandleDigitize(t *testing.T) {
	ts := newTestServer(t)

	script := `
name: api
steps:
  - {action: start, type: LineString}
  - {action: click, points: [[0, 0], [0, 400]]}
  - {action: dblclick, at: [0, 400]}
`
	resp := post(t, ts.URL+"/api/digitize", script)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	var res struct {
		Name   string                     `json:"name"`
		Labels *geojson.FeatureCollection `json:"labels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Name != "api" {
		t.Errorf("unexpected name %q", res.Name)
	}
	if diff := cmp.Diff([]string{"0.0 m", "400.0 m", "400.0 m"}, values(t, res.Labels)); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	bad := post(t, ts.URL+"/api/digitize", "steps: [{action: jump}]")
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown action: expected 400, got %d", bad.StatusCode)
	}
}

func TestHandleSnapshot(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/snapshot?format=PNG&width=64&height=32", squareFeature)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected content type %q", ct)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("unexpected size %v", b)
	}

	if bad := post(t, ts.URL+"/api/snapshot?format=gif", squareFeature); bad.StatusCode != http.StatusBadRequest {
		t.Errorf("gif: expected 400, got %d", bad.StatusCode)
	}
	for _, query := range []string{"width=60000&height=60000", "width=4097", "height=5000"} {
		if big := post(t, ts.URL+"/api/snapshot?"+query, squareFeature); big.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, big.StatusCode)
		}
	}
}

func TestRequestLoggerStatus(t *testing.T) {
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status not passed through: %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body not passed through: %q", rec.Body.String())
	}
}
