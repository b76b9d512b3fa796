package server

import (
	"context"
	"image"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"

	"github.com/woozymasta/dzmeasure/internal/config"
	"github.com/woozymasta/dzmeasure/internal/geo"
	"github.com/woozymasta/dzmeasure/internal/snapshot"
)

// ServerContext holds dependencies for request handlers. It is read-only
// after NewServerContext; every request measures on its own manager.
type ServerContext struct {
	Config     *config.Config
	Minifier   *minify.M
	Background image.Image
	IndexHTML  []byte
}

// NewServerContext validates the configuration, builds the index page and
// loads the snapshot background, if configured.
func NewServerContext(ctx context.Context, client *http.Client, cfg *config.Config) (*ServerContext, error) {
	log.Info().Str("projection", projectionName(cfg)).Msg("Initializing server context")

	if _, err := cfg.Projector(); err != nil {
		return nil, err
	}

	m := NewMinifier()
	index, err := BuildIndex(m)
	if err != nil {
		return nil, err
	}

	s := &ServerContext{
		Config:    cfg,
		Minifier:  m,
		IndexHTML: index,
	}

	if cfg.Snapshot.Background != "" {
		bg, err := snapshot.LoadBackground(ctx, client, cfg.Snapshot.Background)
		if err != nil {
			return nil, err
		}
		s.Background = bg
		log.Debug().Str("source", cfg.Snapshot.Background).Msg("Snapshot background loaded")
	}

	log.Info().
		Int("index_bytes", len(index)).
		Bool("background", s.Background != nil).
		Msg("Server context initialized successfully")

	return s, nil
}

// Routes registers the handlers on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/measure", s.HandleMeasure)
	mux.HandleFunc("/api/convert", s.HandleConvert)
	mux.HandleFunc("/api/digitize", s.HandleDigitize)
	mux.HandleFunc("/api/snapshot", s.HandleSnapshot)
	mux.HandleFunc("/", s.HandleIndex)
	return mux
}

func projectionName(cfg *config.Config) string {
	if cfg.Projection == "" {
		return geo.ProjectionLocalTM
	}
	return cfg.Projection
}
