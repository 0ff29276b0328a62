// Package runlog persists completed pipeline runs to sqlite so past
// decisions can be inspected after the fact.
package runlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fundbot/internal/logger"
	"fundbot/internal/pipeline"
)

type Store struct {
	db *gorm.DB
}

// Open creates (or opens) the sqlite database at path and migrates the
// run-log schema.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("runlog: database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return NewFromDB(db)
}

// NewFromDB wraps an existing gorm handle, migrating the schema. Used by
// tests with an in-memory database.
func NewFromDB(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("runlog: nil db")
	}
	if err := db.AutoMigrate(&RunRecord{}, &DecisionRecord{}, &OutcomeRecord{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecordRun writes one finished run with its decisions and execution
// outcomes. A write failure is logged and swallowed: the journal must never
// affect the run that produced the state.
func (s *Store) RecordRun(state *pipeline.RunState) {
	if s == nil || s.db == nil || state == nil {
		return
	}

	record := RunRecord{
		RunID:       state.ID,
		Instruments: strings.Join(state.Instruments, ","),
		AsOf:        state.AsOf.Unix(),
		Status:      string(state.Status),
		FailReason:  state.FailReason,
		StartedAt:   state.StartedAt.UnixMilli(),
		FinishedAt:  state.FinishedAt.UnixMilli(),
		CreatedAt:   time.Now().Unix(),
	}
	if state.Portfolio != nil {
		if raw, err := json.Marshal(state.Portfolio); err == nil {
			record.PortfolioJSON = string(raw)
		}
	}
	if raw, err := json.Marshal(state.SignalsByProducer); err == nil {
		record.SignalsJSON = string(raw)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		for instrument, d := range state.Decisions {
			row := DecisionRecord{
				RunID:      state.ID,
				Instrument: instrument,
				Action:     string(d.Action),
				Quantity:   d.Quantity,
				Confidence: d.Confidence,
				Rationale:  d.Rationale,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for instrument, o := range state.ExecutionResults {
			row := OutcomeRecord{
				RunID:      state.ID,
				Instrument: instrument,
				Status:     string(o.Status),
				OrderID:    o.OrderID,
				Error:      o.Error,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Warnf("runlog: failed to record run %s: %v", state.ID, err)
	}
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []RunRecord
	err := s.db.Order("started_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// GetRun loads one run with its decisions and outcomes.
func (s *Store) GetRun(runID string) (*RunDetail, error) {
	var run RunRecord
	if err := s.db.Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	detail := &RunDetail{Run: run}
	if err := s.db.Where("run_id = ?", runID).Order("instrument").Find(&detail.Decisions).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("run_id = ?", runID).Order("instrument").Find(&detail.Outcomes).Error; err != nil {
		return nil, err
	}
	return detail, nil
}

// RunDetail is one run joined with its per-instrument rows.
type RunDetail struct {
	Run       RunRecord        `json:"run"`
	Decisions []DecisionRecord `json:"decisions"`
	Outcomes  []OutcomeRecord  `json:"outcomes"`
}

var _ pipeline.Journal = (*Store)(nil)
