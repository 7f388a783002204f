package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/craft/internal/generator"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/mapping"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/similarity"
)

const specDescription = "API spec document as JSON or YAML text (one spec, a list, or {apis: [...]})"

// ScoreResponse is the craft_score result.
type ScoreResponse struct {
	Source      string               `json:"source"`
	Target      string               `json:"target"`
	Breakdown   similarity.Breakdown `json:"breakdown"`
	MappingType model.MappingType    `json:"mapping_type"`
}

// SynthesizeResponse is the craft_synthesize result.
type SynthesizeResponse struct {
	Rules     []model.MappingRule `json:"rules"`
	Sources   int                 `json:"sources"`
	Uncovered []string            `json:"uncovered,omitempty"`
}

// GenerateResponse is the craft_generate result.
type GenerateResponse struct {
	Path     string             `json:"path"`
	Language string             `json:"language"`
	Rule     *model.MappingRule `json:"rule"`
	Code     string             `json:"code"`
}

// AddScoreTool registers craft_score.
func AddScoreTool(s *server.MCPServer, scorer similarity.Scorer) {
	tool := mcp.NewTool(
		"craft_score",
		mcp.WithDescription("Score how well a target-platform API can stand in for a source-platform API. Returns the name, tag and method components and the weighted total."),
		mcp.WithString("source", mcp.Required(), mcp.Description(specDescription)),
		mcp.WithString("target", mcp.Required(), mcp.Description(specDescription)),
	)
	s.AddTool(tool, createScoreHandler(scorer))
}

func createScoreHandler(scorer similarity.Scorer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req scoreRequest
		if errResult := bindArguments(request, &req); errResult != nil {
			return errResult, nil
		}
		source, errResult := singleSpecArgument(req.Source, "source")
		if errResult != nil {
			return errResult, nil
		}
		target, errResult := singleSpecArgument(req.Target, "target")
		if errResult != nil {
			return errResult, nil
		}

		b := similarity.Explain(source, target)
		// The cache is keyed by content and holds the same weighted total.
		b.Total = scorer.Score(source, target)

		return marshalToolResponse(&ScoreResponse{
			Source:      source.FullQualifiedName,
			Target:      target.FullQualifiedName,
			Breakdown:   b,
			MappingType: mapping.Classify(b.Total),
		})
	}
}

// AddSynthesizeTool registers craft_synthesize.
func AddSynthesizeTool(s *server.MCPServer, cfg mapping.Config, scorer similarity.Scorer, logger *slog.Logger) {
	tool := mcp.NewTool(
		"craft_synthesize",
		mcp.WithDescription("Synthesize mapping rules from source-platform APIs to their best target-platform counterparts. Sources without a target above the confidence threshold are listed as uncovered."),
		mcp.WithString("sources", mcp.Required(), mcp.Description(specDescription)),
		mcp.WithString("targets", mcp.Required(), mcp.Description(specDescription)),
		mcp.WithNumber("min_confidence", mcp.Description("Lowest score that yields a rule (0-1, default from configuration)")),
	)
	s.AddTool(tool, createSynthesizeHandler(cfg, scorer, logger))
}

func createSynthesizeHandler(cfg mapping.Config, scorer similarity.Scorer, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req synthesizeRequest
		if errResult := bindArguments(request, &req); errResult != nil {
			return errResult, nil
		}
		sources, errResult := specArgument(req.Sources, "sources")
		if errResult != nil {
			return errResult, nil
		}
		targets, errResult := specArgument(req.Targets, "targets")
		if errResult != nil {
			return errResult, nil
		}

		if v := req.MinConfidence; v != nil {
			if *v < 0 || *v > 1 {
				return mcp.NewToolResultError("min_confidence must be within [0,1]"), nil
			}
			cfg.MinConfidence = *v
		}

		synth := mapping.NewSynthesizer(cfg, mapping.WithScorer(scorer), mapping.WithLogger(logger))
		rules, err := synth.Synthesize(ctx, sources, targets)
		if err != nil {
			return nil, fmt.Errorf("synthesis failed: %w", err)
		}

		covered := make(map[string]bool, len(rules))
		for _, r := range rules {
			covered[r.Source.Class] = true
		}
		var uncovered []string
		for _, s := range sources {
			if !covered[s.FullQualifiedName] {
				uncovered = append(uncovered, s.FullQualifiedName)
			}
		}
		if rules == nil {
			rules = []model.MappingRule{}
		}

		return marshalToolResponse(&SynthesizeResponse{Rules: rules, Sources: len(sources), Uncovered: uncovered})
	}
}

// AddGenerateTool registers craft_generate.
func AddGenerateTool(s *server.MCPServer, gen *generator.Generator, scorer similarity.Scorer) {
	tool := mcp.NewTool(
		"craft_generate",
		mcp.WithDescription("Generate a delegating adapter that exposes the source API's methods on top of the target API. Without an explicit rule, one is derived from the two specs."),
		mcp.WithString("source", mcp.Required(), mcp.Description(specDescription)),
		mcp.WithString("target", mcp.Required(), mcp.Description(specDescription)),
		mcp.WithString("language", mcp.Required(), mcp.Description("Output language: java, kotlin or arkts")),
		mcp.WithString("rule", mcp.Description("Optional mapping rule as JSON, as returned by craft_synthesize")),
	)
	s.AddTool(tool, createGenerateHandler(gen, scorer))
}

func createGenerateHandler(gen *generator.Generator, scorer similarity.Scorer) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req generateRequest
		if errResult := bindArguments(request, &req); errResult != nil {
			return errResult, nil
		}
		source, errResult := singleSpecArgument(req.Source, "source")
		if errResult != nil {
			return errResult, nil
		}
		target, errResult := singleSpecArgument(req.Target, "target")
		if errResult != nil {
			return errResult, nil
		}
		if req.Language == "" {
			return mcp.NewToolResultError("language parameter is required"), nil
		}
		l, err := lang.Parse(req.Language)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("unsupported language %q (valid: java, kotlin, arkts)", req.Language)), nil
		}

		var rule *model.MappingRule
		if req.Rule != "" {
			rule = &model.MappingRule{}
			if err := json.Unmarshal([]byte(req.Rule), rule); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid rule: %v", err)), nil
			}
		} else {
			// Any pair is accepted here; the caller already chose it.
			synth := mapping.NewSynthesizer(mapping.Config{MinConfidence: 0}, mapping.WithScorer(scorer))
			rule = synth.SynthesizeOne(source, []*model.APISpec{target})
		}

		code, err := gen.Generate(rule, source, target, l)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, err := generator.RelativePath(rule, l)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return marshalToolResponse(&GenerateResponse{Path: path, Language: l.String(), Rule: rule, Code: code})
	}
}
