// Package mcp exposes scoring, rule synthesis and adapter generation as
// Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/craft/internal/generator"
	"github.com/mvp-joe/craft/internal/mapping"
	"github.com/mvp-joe/craft/internal/similarity"
)

// DefaultCacheSize bounds the memoized pair scores kept by the server.
const DefaultCacheSize = 10_000

// Deps are the collaborators the tools share.
type Deps struct {
	Mapping   mapping.Config
	Generator *generator.Generator
	Logger    *slog.Logger
	Version   string
}

// Server manages the MCP server lifecycle.
type Server struct {
	mcp    *server.MCPServer
	scorer *similarity.CachedScorer
	logger *slog.Logger
}

// NewServer creates the server and registers all craft tools. Pair scores
// are cached for the life of the server.
func NewServer(deps Deps) (*Server, error) {
	if deps.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = generator.DefaultVersion
	}

	scorer, err := similarity.NewCachedScorer(similarity.Default, DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create score cache: %w", err)
	}

	s := server.NewMCPServer(
		"craft-mcp",
		deps.Version,
		server.WithToolCapabilities(true),
	)

	AddScoreTool(s, scorer)
	AddSynthesizeTool(s, deps.Mapping, scorer, deps.Logger)
	AddGenerateTool(s, deps.Generator, scorer)

	return &Server{mcp: s, scorer: scorer, logger: deps.Logger}, nil
}

// Serve runs the server on stdio until a signal, a transport error or ctx
// cancellation.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.logger.Info("received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the score cache.
func (s *Server) Close() error {
	hits, misses := s.scorer.Stats()
	s.logger.Debug("score cache", "hits", hits, "misses", misses)
	s.scorer.Close()
	return nil
}
