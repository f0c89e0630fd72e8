package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"horse.fit/telephone/internal/telephone"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// InsertChainRunParams is one completed run ready to be stored.
type InsertChainRunParams struct {
	RunUUID  string
	Provider string
	Result   *telephone.Result
}

// ChainRunSummary is one row of the run history listing.
type ChainRunSummary struct {
	RunUUID          string    `json:"run_uuid"`
	Provider         string    `json:"provider"`
	OriginalText     string    `json:"original_text"`
	OriginalLanguage string    `json:"original_language"`
	FinalText        string    `json:"final_text"`
	TotalSteps       int       `json:"total_steps"`
	FinalDivergence  int       `json:"final_divergence"`
	DivergencePolicy int       `json:"divergence_policy"`
	CreatedAt        time.Time `json:"created_at"`
}

// ChainRunStepRow is one stored hop.
type ChainRunStepRow struct {
	Step            int    `json:"step"`
	Language        string `json:"language"`
	Text            string `json:"text"`
	BackTranslation string `json:"back_translation"`
	Divergence      int    `json:"divergence"`
}

// ChainRunDetail is a stored run with its hops in order.
type ChainRunDetail struct {
	ChainRunSummary
	Steps []ChainRunStepRow `json:"steps"`
}

// ChainRunPage is one page of the run history.
type ChainRunPage struct {
	Items  []ChainRunSummary `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// InsertChainRun stores a completed run and its steps in one transaction.
func (p *Pool) InsertChainRun(ctx context.Context, params InsertChainRunParams) error {
	if err := validateInsert(params); err != nil {
		return err
	}
	record := chainRunRecord(params)
	return p.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("insert chain run: %w", err)
		}
		return nil
	})
}

func chainRunRecord(params InsertChainRunParams) ChainRun {
	res := params.Result
	steps := make([]ChainRunStep, 0, len(res.Steps))
	for _, step := range res.Steps {
		steps = append(steps, ChainRunStep{
			StepNumber:      step.Step,
			Language:        string(step.Language),
			Text:            step.Text,
			BackTranslation: step.BackTranslation,
			Divergence:      step.Divergence,
		})
	}
	return ChainRun{
		ChainRunUUID:     strings.TrimSpace(params.RunUUID),
		Provider:         strings.TrimSpace(params.Provider),
		OriginalText:     res.Original,
		OriginalLanguage: string(res.OriginalLanguage),
		FinalText:        res.FinalText,
		TotalSteps:       res.TotalSteps,
		FinalDivergence:  res.FinalDivergence(),
		DivergencePolicy: res.DivergencePolicy,
		Steps:            steps,
	}
}

// ListChainRuns returns completed runs, newest first.
func (p *Pool) ListChainRuns(ctx context.Context, limit, offset int) (ChainRunPage, error) {
	limit, offset = clampPage(limit, offset)

	var total int64
	if err := p.queryRow(ctx, `SELECT count(*) FROM telephone.chain_runs`).Scan(&total); err != nil {
		return ChainRunPage{}, fmt.Errorf("count chain runs: %w", err)
	}

	const q = `
SELECT
	chain_run_uuid::text,
	provider,
	original_text,
	original_language,
	final_text,
	total_steps,
	final_divergence,
	divergence_policy,
	created_at
FROM telephone.chain_runs
ORDER BY created_at DESC, chain_run_id DESC
LIMIT $1 OFFSET $2
`
	rows, err := p.query(ctx, q, limit, offset)
	if err != nil {
		return ChainRunPage{}, fmt.Errorf("query chain runs: %w", err)
	}
	defer rows.Close()

	items := make([]ChainRunSummary, 0, limit)
	for rows.Next() {
		var row ChainRunSummary
		if err := rows.Scan(
			&row.RunUUID,
			&row.Provider,
			&row.OriginalText,
			&row.OriginalLanguage,
			&row.FinalText,
			&row.TotalSteps,
			&row.FinalDivergence,
			&row.DivergencePolicy,
			&row.CreatedAt,
		); err != nil {
			return ChainRunPage{}, fmt.Errorf("scan chain run row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return ChainRunPage{}, fmt.Errorf("iterate chain run rows: %w", err)
	}

	return ChainRunPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// GetChainRunByUUID loads one stored run. Missing runs return ErrNoRows.
func (p *Pool) GetChainRunByUUID(ctx context.Context, runUUID string) (ChainRunDetail, error) {
	const runQuery = `
SELECT
	chain_run_id,
	chain_run_uuid::text,
	provider,
	original_text,
	original_language,
	final_text,
	total_steps,
	final_divergence,
	divergence_policy,
	created_at
FROM telephone.chain_runs
WHERE chain_run_uuid = $1::uuid
`
	var (
		runID  int64
		detail ChainRunDetail
	)
	if err := p.queryRow(ctx, runQuery, strings.TrimSpace(runUUID)).Scan(
		&runID,
		&detail.RunUUID,
		&detail.Provider,
		&detail.OriginalText,
		&detail.OriginalLanguage,
		&detail.FinalText,
		&detail.TotalSteps,
		&detail.FinalDivergence,
		&detail.DivergencePolicy,
		&detail.CreatedAt,
	); err != nil {
		if IsNoRows(err) {
			return ChainRunDetail{}, ErrNoRows
		}
		return ChainRunDetail{}, fmt.Errorf("query chain run: %w", err)
	}

	const stepQuery = `
SELECT step_number, language, text, back_translation, divergence
FROM telephone.chain_run_steps
WHERE chain_run_id = $1
ORDER BY step_number
`
	rows, err := p.query(ctx, stepQuery, runID)
	if err != nil {
		return ChainRunDetail{}, fmt.Errorf("query chain run steps: %w", err)
	}
	defer rows.Close()

	detail.Steps = make([]ChainRunStepRow, 0, detail.TotalSteps)
	for rows.Next() {
		var step ChainRunStepRow
		if err := rows.Scan(&step.Step, &step.Language, &step.Text, &step.BackTranslation, &step.Divergence); err != nil {
			return ChainRunDetail{}, fmt.Errorf("scan chain run step: %w", err)
		}
		detail.Steps = append(detail.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return ChainRunDetail{}, fmt.Errorf("iterate chain run steps: %w", err)
	}
	return detail, nil
}

func validateInsert(params InsertChainRunParams) error {
	if strings.TrimSpace(params.RunUUID) == "" {
		return fmt.Errorf("run uuid is required")
	}
	res := params.Result
	if res == nil {
		return fmt.Errorf("only completed runs can be stored")
	}
	if len(res.Steps) == 0 || len(res.Steps) != res.TotalSteps {
		return fmt.Errorf("run has %d steps, expected %d", len(res.Steps), res.TotalSteps)
	}
	if res.FinalText != res.Steps[len(res.Steps)-1].BackTranslation {
		return fmt.Errorf("final text does not match the last back-translation")
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	return limit, max(0, offset)
}
