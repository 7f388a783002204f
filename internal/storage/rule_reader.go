package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mvp-joe/craft/internal/model"
)

// RuleReader reads runs, rules and adapters back out of the store.
type RuleReader struct {
	db *sql.DB
}

// NewRuleReader creates a RuleReader over an open store.
func NewRuleReader(db *sql.DB) *RuleReader {
	return &RuleReader{db: db}
}

// LatestRun returns the most recently started run, or nil when the store
// has none.
func (r *RuleReader) LatestRun() (*RunRecord, error) {
	row := sq.Select(
		"run_id", "source_dir", "target_dir", "min_confidence", "languages",
		"total", "processed", "successful", "failed", "skipped",
		"started_at", "finished_at",
	).
		From("runs").
		OrderBy("started_at DESC").
		Limit(1).
		RunWith(r.db).
		QueryRow()

	var (
		run      RunRecord
		langs    string
		started  string
		finished sql.NullString
	)
	err := row.Scan(
		&run.RunID, &run.SourceDir, &run.TargetDir, &run.MinConfidence, &langs,
		&run.Total, &run.Processed, &run.Successful, &run.Failed, &run.Skipped,
		&started, &finished,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read latest run: %w", err)
	}

	if err := json.Unmarshal([]byte(langs), &run.Languages); err != nil {
		return nil, fmt.Errorf("failed to decode languages for run %s: %w", run.RunID, err)
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if finished.Valid {
		if run.FinishedAt, err = parseTime(finished.String); err != nil {
			return nil, err
		}
	}
	return &run, nil
}

// ReadRules returns the rules of a run in synthesis order, with their
// method mappings attached.
func (r *RuleReader) ReadRules(runID string) ([]model.MappingRule, error) {
	rows, err := sq.Select(
		"rule_id", "source_platform", "source_class", "target_platform", "target_class",
		"mapping_type", "confidence", "requires_imports", "bridge_code",
		"created_at", "updated_at",
	).
		From("mapping_rules").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("position").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []model.MappingRule
	index := make(map[string]int)
	for rows.Next() {
		var (
			rule                       model.MappingRule
			id, srcPlat, tgtPlat, kind string
			imports, created, updated  string
		)
		if err := rows.Scan(
			&id, &srcPlat, &rule.Source.Class, &tgtPlat, &rule.Target.Class,
			&kind, &rule.Confidence, &imports, &rule.BridgeCode,
			&created, &updated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		if rule.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid rule id %q: %w", id, err)
		}
		rule.Source.Platform = model.Platform(srcPlat)
		rule.Target.Platform = model.Platform(tgtPlat)
		rule.MappingType = model.MappingType(kind)
		if err := json.Unmarshal([]byte(imports), &rule.RequiresImports); err != nil {
			return nil, fmt.Errorf("failed to decode imports for rule %s: %w", id, err)
		}
		if len(rule.RequiresImports) == 0 {
			rule.RequiresImports = nil
		}
		if rule.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if rule.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}

		index[id] = len(rules)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	if len(rules) == 0 {
		return rules, nil
	}
	if err := r.attachMethodMappings(runID, rules, index); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *RuleReader) attachMethodMappings(runID string, rules []model.MappingRule, index map[string]int) error {
	rows, err := sq.Select(
		"m.rule_id", "m.source_method", "m.target_method",
		"m.param_mappings", "m.pre_call_code", "m.post_call_code",
	).
		From("method_mappings m").
		Join("mapping_rules r ON r.rule_id = m.rule_id").
		Where(sq.Eq{"r.run_id": runID}).
		OrderBy("m.rule_id", "m.position").
		RunWith(r.db).
		Query()
	if err != nil {
		return fmt.Errorf("failed to query method mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, params string
			mm         model.MethodMapping
		)
		if err := rows.Scan(&id, &mm.SourceMethod, &mm.TargetMethod, &params, &mm.PreCallCode, &mm.PostCallCode); err != nil {
			return fmt.Errorf("failed to scan method mapping: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &mm.ParamMappings); err != nil {
			return fmt.Errorf("failed to decode params for %s: %w", mm.SourceMethod, err)
		}
		if len(mm.ParamMappings) == 0 {
			mm.ParamMappings = nil
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		rules[i].MethodMappings = append(rules[i].MethodMappings, mm)
	}
	return rows.Err()
}

// ReadAdapters lists the adapters recorded for a rule, ordered by language.
func (r *RuleReader) ReadAdapters(ruleID string) ([]AdapterRecord, error) {
	rows, err := sq.Select("rule_id", "language", "draft", "path", "checksum", "generated_at").
		From("adapters").
		Where(sq.Eq{"rule_id": ruleID}).
		OrderBy("language", "draft").
		RunWith(r.db).
		Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query adapters: %w", err)
	}
	defer rows.Close()

	var out []AdapterRecord
	for rows.Next() {
		var (
			rec AdapterRecord
			at  string
		)
		if err := rows.Scan(&rec.RuleID, &rec.Language, &rec.Draft, &rec.Path, &rec.Checksum, &at); err != nil {
			return nil, fmt.Errorf("failed to scan adapter: %w", err)
		}
		if rec.GeneratedAt, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// OracleScore returns the recorded oracle estimate for a rule.
func (r *RuleReader) OracleScore(ruleID string) (float64, bool, error) {
	var score float64
	err := sq.Select("score").
		From("oracle_scores").
		Where(sq.Eq{"rule_id": ruleID}).
		RunWith(r.db).
		QueryRow().
		Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read oracle score: %w", err)
	}
	return score, true, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
