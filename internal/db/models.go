package db

import "time"

// ChainRun maps telephone.chain_runs. One row per completed run.
type ChainRun struct {
	ChainRunID       int64     `gorm:"column:chain_run_id;primaryKey;autoIncrement"`
	ChainRunUUID     string    `gorm:"column:chain_run_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Provider         string    `gorm:"column:provider;type:text;not null"`
	OriginalText     string    `gorm:"column:original_text;type:text;not null"`
	OriginalLanguage string    `gorm:"column:original_language;type:text;not null"`
	FinalText        string    `gorm:"column:final_text;type:text;not null"`
	TotalSteps       int       `gorm:"column:total_steps;type:integer;not null"`
	FinalDivergence  int       `gorm:"column:final_divergence;type:integer;not null"`
	DivergencePolicy int       `gorm:"column:divergence_policy;type:integer;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`

	Steps []ChainRunStep `gorm:"foreignKey:ChainRunID;references:ChainRunID;constraint:OnDelete:CASCADE"`
}

func (ChainRun) TableName() string { return "telephone.chain_runs" }

// ChainRunStep maps telephone.chain_run_steps.
type ChainRunStep struct {
	ChainRunStepID  int64  `gorm:"column:chain_run_step_id;primaryKey;autoIncrement"`
	ChainRunID      int64  `gorm:"column:chain_run_id;type:bigint;not null;uniqueIndex:chain_run_steps_run_step_key,priority:1"`
	StepNumber      int    `gorm:"column:step_number;type:integer;not null;uniqueIndex:chain_run_steps_run_step_key,priority:2"`
	Language        string `gorm:"column:language;type:text;not null"`
	Text            string `gorm:"column:text;type:text;not null"`
	BackTranslation string `gorm:"column:back_translation;type:text;not null"`
	Divergence      int    `gorm:"column:divergence;type:integer;not null"`
}

func (ChainRunStep) TableName() string { return "telephone.chain_run_steps" }

func autoMigrateModels() []any {
	return []any{
		&ChainRun{},
		&ChainRunStep{},
	}
}
