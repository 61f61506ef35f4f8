// Package service is the composition root: it wires the store, version
// control, edit sessions, context retrieval and document IO behind one facade
// used by the CLI and the MCP server.
package service

import (
	"fmt"
	"time"

	"github.com/redlinehq/redline/docio"
	"github.com/redlinehq/redline/embeddings"
	ollamaembed "github.com/redlinehq/redline/embeddings/ollama"
	openaiembed "github.com/redlinehq/redline/embeddings/openai"
	"github.com/redlinehq/redline/embeddings/vertexai"
	"github.com/redlinehq/redline/retrieval"
	"github.com/redlinehq/redline/session"
	"github.com/redlinehq/redline/store"
	"github.com/redlinehq/redline/suggest"
	openaisuggest "github.com/redlinehq/redline/suggest/openai"
	"github.com/redlinehq/redline/suggest/static"
	"github.com/redlinehq/redline/version"
)

// Option configures the Service.
type Option func(*Service)

// WithConfig sets the configuration used to build components.
func WithConfig(cfg *Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithStore sets an existing content store.
func WithStore(st *store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithSuggester overrides the configured suggestion provider.
func WithSuggester(sg suggest.Suggester) Option {
	return func(s *Service) { s.suggester = sg }
}

// WithEmbedder overrides the configured embedder.
func WithEmbedder(e embeddings.Embedder) Option {
	return func(s *Service) { s.embedder = e }
}

// WithLogf sets a log sink passed down to all components.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Service) { s.logf = logf }
}

// Service exposes the manuscript editing operations.
type Service struct {
	cfg       *Config
	store     *store.Store
	versions  *version.Manager
	sessions  *session.Manager
	index     *retrieval.Index
	files     *docio.Service
	suggester suggest.Suggester
	embedder  embeddings.Embedder
	logf      func(format string, args ...any)
}

// New creates a Service from configuration plus overrides.
func New(opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = DefaultConfig()
	}
	cfg := s.cfg

	if s.store == nil {
		if cfg.Store.DSN == "" {
			return nil, fmt.Errorf("service: store dsn required")
		}
		st, err := store.New(store.WithDSN(cfg.Store.DSN))
		if err != nil {
			return nil, err
		}
		s.store = st
	}
	s.versions = version.New(s.store, version.WithLogf(s.logf))
	s.files = docio.New()

	if s.embedder == nil {
		embedder, err := buildEmbedder(cfg.Embeddings)
		if err != nil {
			return nil, err
		}
		s.embedder = embedder
	}
	if cfg.Index.DSN != "" {
		chunker := retrieval.NewChunker(
			retrieval.WithMaxChunkSize(cfg.Index.ChunkSize),
			retrieval.WithOverlap(cfg.Index.Overlap),
		)
		index, err := retrieval.NewIndex(
			retrieval.WithDSN(cfg.Index.DSN),
			retrieval.WithEmbedder(s.embedder),
			retrieval.WithChunker(chunker),
			retrieval.WithLogf(s.logf),
		)
		if err != nil {
			return nil, err
		}
		s.index = index
	}
	if s.suggester == nil {
		suggester, err := buildSuggester(cfg.Suggest)
		if err != nil {
			return nil, err
		}
		s.suggester = suggester
	}

	sessionOpts := []session.Option{
		session.WithNumOptions(cfg.Suggest.NumOptions),
		session.WithContextChunks(cfg.Suggest.ContextChunks),
		session.WithContextChars(cfg.Suggest.ContextChars),
		session.WithLogf(s.logf),
	}
	if cfg.Suggest.TimeoutSeconds > 0 {
		sessionOpts = append(sessionOpts, session.WithSuggestTimeout(time.Duration(cfg.Suggest.TimeoutSeconds)*time.Second))
	}
	if s.index != nil {
		sessionOpts = append(sessionOpts, session.WithRetriever(s.index))
	}
	s.sessions = session.New(s.store, s.versions, s.suggester, sessionOpts...)
	return s, nil
}

// Close releases owned resources.
func (s *Service) Close() error {
	var firstErr error
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			firstErr = err
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Store exposes the underlying content store.
func (s *Service) Store() *store.Store { return s.store }

func buildEmbedder(cfg EmbeddingsConfig) (embeddings.Embedder, error) {
	switch cfg.Provider {
	case "", "simple":
		return embeddings.NewSimple(cfg.Dimensions), nil
	case "openai":
		client := openaiembed.NewClient(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			client.BaseURL = cfg.BaseURL
		}
		client.Dimensions = cfg.Dimensions
		return &openaiembed.Embedder{C: client}, nil
	case "ollama":
		var opts []ollamaembed.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, ollamaembed.WithBaseURL(cfg.BaseURL))
		}
		if cfg.KeepAlive != "" {
			opts = append(opts, ollamaembed.WithKeepAlive(cfg.KeepAlive))
		}
		return &ollamaembed.Embedder{C: ollamaembed.NewClientWithOptions(cfg.Model, opts...)}, nil
	case "vertexai":
		return vertexai.NewEmbedder(cfg.Project, cfg.Model, cfg.Location, nil, cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("service: unknown embeddings provider %q", cfg.Provider)
	}
}

func buildSuggester(cfg SuggestConfig) (suggest.Suggester, error) {
	switch cfg.Provider {
	case "", "static":
		return static.New(), nil
	case "openai":
		client := openaisuggest.NewClient(cfg.APIKey, cfg.Model)
		if cfg.BaseURL != "" {
			client.BaseURL = cfg.BaseURL
		}
		return client, nil
	default:
		return nil, fmt.Errorf("service: unknown suggest provider %q", cfg.Provider)
	}
}
