package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

//go:embed sql/pre_automigrate.sql
var preAutoMigrateSQL string

//go:embed sql/post_automigrate.sql
var postAutoMigrateSQL string

type migrationStep struct {
	name string
	run  func(tx *gorm.DB) error
}

// migrationSteps creates the schema, lets gorm shape the tables, then adds
// the indexes AutoMigrate does not express.
func migrationSteps() []migrationStep {
	return []migrationStep{
		{name: "pre-auto-migrate", run: rawSQL(preAutoMigrateSQL)},
		{name: "auto-migrate", run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(autoMigrateModels()...)
		}},
		{name: "post-auto-migrate", run: rawSQL(postAutoMigrateSQL)},
	}
}

func (p *Pool) migrate(ctx context.Context) error {
	if p == nil || p.gdb == nil {
		return errPoolClosed
	}
	gdb := p.gdb.WithContext(ctx)
	for _, step := range migrationSteps() {
		if err := step.run(gdb); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func rawSQL(sqlText string) func(tx *gorm.DB) error {
	trimmed := strings.TrimSpace(sqlText)
	return func(tx *gorm.DB) error {
		if trimmed == "" {
			return nil
		}
		return tx.Exec(trimmed).Error
	}
}
