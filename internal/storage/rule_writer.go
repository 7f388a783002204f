package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mvp-joe/craft/internal/model"
)

// RuleWriter persists runs, rules and generated adapters.
type RuleWriter struct {
	db *sql.DB
}

// NewRuleWriter creates a RuleWriter. The schema must already exist.
func NewRuleWriter(db *sql.DB) *RuleWriter {
	return &RuleWriter{db: db}
}

// WriteRun inserts or updates a run record.
func (w *RuleWriter) WriteRun(run *RunRecord) error {
	langs, err := json.Marshal(run.Languages)
	if err != nil {
		return fmt.Errorf("failed to encode languages: %w", err)
	}

	var finished any
	if !run.FinishedAt.IsZero() {
		finished = run.FinishedAt.Format(time.RFC3339Nano)
	}

	_, err = sq.Insert("runs").
		Columns(
			"run_id", "source_dir", "target_dir", "min_confidence", "languages",
			"total", "processed", "successful", "failed", "skipped",
			"started_at", "finished_at",
		).
		Values(
			run.RunID, run.SourceDir, run.TargetDir, run.MinConfidence, string(langs),
			run.Total, run.Processed, run.Successful, run.Failed, run.Skipped,
			run.StartedAt.Format(time.RFC3339Nano), finished,
		).
		Options("OR REPLACE").
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write run %s: %w", run.RunID, err)
	}
	return nil
}

// WriteRules stores rules for a run in one transaction, keeping their order.
func (w *RuleWriter) WriteRules(runID string, rules []model.MappingRule) error {
	if len(rules) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	ruleSQL, _, err := sq.Insert("mapping_rules").
		Columns(
			"rule_id", "run_id", "position",
			"source_platform", "source_class", "target_platform", "target_class",
			"mapping_type", "confidence", "requires_imports", "bridge_code",
			"created_at", "updated_at",
		).
		Values("", "", 0, "", "", "", "", "", 0.0, "", "", "", "").
		Options("OR REPLACE").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL: %w", err)
	}
	methodSQL, _, err := sq.Insert("method_mappings").
		Columns("rule_id", "position", "source_method", "target_method", "param_mappings", "pre_call_code", "post_call_code").
		Values("", 0, "", "", "", "", "").
		Options("OR REPLACE").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build SQL: %w", err)
	}

	ruleStmt, err := tx.Prepare(ruleSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer ruleStmt.Close()

	methodStmt, err := tx.Prepare(methodSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer methodStmt.Close()

	for pos, r := range rules {
		imports, err := json.Marshal(nonNil(r.RequiresImports))
		if err != nil {
			return fmt.Errorf("failed to encode imports for rule %s: %w", r.ID, err)
		}

		// Replacing a rule must not leave stale method rows behind.
		if _, err := tx.Exec(`DELETE FROM method_mappings WHERE rule_id = ?`, r.ID.String()); err != nil {
			return fmt.Errorf("failed to clear method mappings for rule %s: %w", r.ID, err)
		}

		if _, err := ruleStmt.Exec(
			r.ID.String(), runID, pos,
			string(r.Source.Platform), r.Source.Class, string(r.Target.Platform), r.Target.Class,
			string(r.MappingType), r.Confidence, string(imports), r.BridgeCode,
			r.CreatedAt.Format(time.RFC3339Nano), r.UpdatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to write rule %s: %w", r.ID, err)
		}

		for mpos, mm := range r.MethodMappings {
			params, err := json.Marshal(nonNilPairs(mm.ParamMappings))
			if err != nil {
				return fmt.Errorf("failed to encode params for %s: %w", mm.SourceMethod, err)
			}
			if _, err := methodStmt.Exec(
				r.ID.String(), mpos, mm.SourceMethod, mm.TargetMethod,
				string(params), mm.PreCallCode, mm.PostCallCode,
			); err != nil {
				return fmt.Errorf("failed to write method mapping %s of rule %s: %w", mm.SourceMethod, r.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WriteAdapter records a generated adapter file.
func (w *RuleWriter) WriteAdapter(rec *AdapterRecord) error {
	_, err := sq.Insert("adapters").
		Columns("rule_id", "language", "draft", "path", "checksum", "generated_at").
		Values(rec.RuleID, rec.Language, rec.Draft, rec.Path, rec.Checksum, rec.GeneratedAt.Format(time.RFC3339Nano)).
		Options("OR REPLACE").
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write adapter %s: %w", rec.Path, err)
	}
	return nil
}

// WriteOracleScore records an oracle similarity estimate for a rule.
func (w *RuleWriter) WriteOracleScore(ruleID string, score float64, at time.Time) error {
	_, err := sq.Insert("oracle_scores").
		Columns("rule_id", "score", "created_at").
		Values(ruleID, score, at.Format(time.RFC3339Nano)).
		Options("OR REPLACE").
		RunWith(w.db).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to write oracle score for %s: %w", ruleID, err)
	}
	return nil
}

// Close is a no-op; the caller owns the connection.
func (w *RuleWriter) Close() error {
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilPairs(p []model.ParamPair) []model.ParamPair {
	if p == nil {
		return []model.ParamPair{}
	}
	return p
}
