// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/dzmeasure/internal/draw"
	"github.com/woozymasta/dzmeasure/internal/measure"
	"github.com/woozymasta/dzmeasure/internal/replay"
	"github.com/woozymasta/dzmeasure/internal/snapshot"
	"github.com/woozymasta/dzmeasure/internal/source"
	"github.com/woozymasta/dzmeasure/internal/units"
)

const maxRequestBody = 16 << 20

// HandleIndex serves the API page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleMeasure returns the label collection of the posted GeoJSON.
func (s *ServerContext) HandleMeasure(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	fc, err := readFeatures(w, r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	m, err := s.measure(r, fc)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, m.Labels())
}

type convertResponse struct {
	From  string  `json:"from"`
	To    string  `json:"to"`
	Value float64 `json:"value"`
}

// HandleConvert converts ?value= between the ?from= and ?to= units.
func (s *ServerContext) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	v, err := strconv.ParseFloat(q.Get("value"), 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("value: %w", err))
		return
	}

	from, to := strings.ToUpper(q.Get("from")), strings.ToUpper(q.Get("to"))
	out, err := units.Convert(v, from, to)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, convertResponse{From: from, To: to, Value: out})
}

// HandleDigitize replays the posted script and returns the drawn features
// and labels.
func (s *ServerContext) HandleDigitize(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	script, err := replay.Parse(data)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	res, err := replay.Run(r.Context(), s.Config, script)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, res)
}

// HandleSnapshot renders the posted GeoJSON and its labels as an image.
// ?format=, ?width= and ?height= override the configuration.
func (s *ServerContext) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	fc, err := readFeatures(w, r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	m, err := s.measure(r, fc)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	q := r.URL.Query()
	opts := snapshot.Options{
		Background: s.Background,
		Width:      intParam(q.Get("width"), s.Config.Snapshot.Width),
		Height:     intParam(q.Get("height"), s.Config.Snapshot.Height),
	}
	if opts.Width > snapshot.MaxSize || opts.Height > snapshot.MaxSize {
		s.writeError(w, r, http.StatusBadRequest,
			fmt.Errorf("image size %dx%d exceeds %d", opts.Width, opts.Height, snapshot.MaxSize))
		return
	}
	enc := snapshot.EncodeOptions{
		Format:   s.Config.Snapshot.Format,
		Quality:  s.Config.Snapshot.Quality,
		Lossless: s.Config.Snapshot.Lossless,
	}
	if f := q.Get("format"); f != "" {
		enc.Format = f
	}
	enc.Format = strings.ToLower(enc.Format)
	if enc.Format != "" && enc.Format != snapshot.FormatWebP && enc.Format != snapshot.FormatPNG {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("unsupported image format %q", enc.Format))
		return
	}

	features := geojson.NewFeatureCollection()
	for _, f := range m.Features() {
		features.Append(f)
	}

	img, err := snapshot.Render(features, m.Labels(), opts)
	if err != nil {
		s.writeError(w, r, statusOf(err), err)
		return
	}

	var buf bytes.Buffer
	if err := snapshot.Encode(&buf, img, enc); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", enc.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// measure feeds fc into a fresh manager. Query parameters length and area
// select units; segment=false and polygon_distance=false hide labels.
func (s *ServerContext) measure(r *http.Request, fc *geojson.FeatureCollection) (*measure.Manager, error) {
	m, err := s.Config.NewManager(draw.NewHeadlessHost())
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	if err := m.SetUnits(measure.Units{Length: q.Get("length"), Area: q.Get("area")}); err != nil {
		return nil, err
	}
	if v, err := strconv.ParseBool(q.Get("segment")); err == nil {
		m.ShowSegment(v)
	}
	if v, err := strconv.ParseBool(q.Get("polygon_distance")); err == nil {
		m.ShowPolygonDistance(v)
	}

	for _, f := range fc.Features {
		if err := m.SetFeature(f); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func readFeatures(w http.ResponseWriter, r *http.Request) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		return nil, err
	}
	return source.Decode(data)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	return false
}

func intParam(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// statusOf maps request errors to 400 and measuring errors, such as
// unsupported geometries or failed projections, to 422.
func statusOf(err error) int {
	var unitErr *units.UnsupportedUnitError
	if errors.As(err, &unitErr) ||
		errors.Is(err, replay.ErrUnknownAction) ||
		errors.Is(err, draw.ErrUnknownType) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *ServerContext) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	log.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")
	s.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

// writeJSON writes indented JSON, or minified JSON with ?compact=true.
func (s *ServerContext) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Failed to marshal response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if compact, _ := strconv.ParseBool(r.URL.Query().Get("compact")); compact {
		if minified, err := s.Minifier.Bytes("application/json", data); err == nil {
			data = minified
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_, _ = w.Write(data)
}
