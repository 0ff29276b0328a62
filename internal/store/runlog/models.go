package runlog

// RunRecord is one completed (or failed) pipeline run.
type RunRecord struct {
	ID            int64  `gorm:"column:id;primaryKey" json:"-"`
	RunID         string `gorm:"column:run_id;uniqueIndex" json:"run_id"`
	Instruments   string `gorm:"column:instruments" json:"instruments"`
	AsOf          int64  `gorm:"column:as_of" json:"as_of"`
	Status        string `gorm:"column:status" json:"status"`
	FailReason    string `gorm:"column:fail_reason" json:"fail_reason,omitempty"`
	PortfolioJSON string `gorm:"column:portfolio_json;type:TEXT" json:"portfolio_json,omitempty"`
	SignalsJSON   string `gorm:"column:signals_json;type:TEXT" json:"signals_json,omitempty"`
	StartedAt     int64  `gorm:"column:started_at" json:"started_at"`
	FinishedAt    int64  `gorm:"column:finished_at" json:"finished_at"`
	CreatedAt     int64  `gorm:"column:created_at" json:"-"`
}

func (RunRecord) TableName() string { return "runs" }

// DecisionRecord is one instrument's resolved decision within a run.
type DecisionRecord struct {
	ID         int64   `gorm:"column:id;primaryKey" json:"-"`
	RunID      string  `gorm:"column:run_id;index" json:"run_id"`
	Instrument string  `gorm:"column:instrument" json:"instrument"`
	Action     string  `gorm:"column:action" json:"action"`
	Quantity   int64   `gorm:"column:quantity" json:"quantity"`
	Confidence float64 `gorm:"column:confidence" json:"confidence"`
	Rationale  string  `gorm:"column:rationale;type:TEXT" json:"rationale,omitempty"`
}

func (DecisionRecord) TableName() string { return "run_decisions" }

// OutcomeRecord is one instrument's execution outcome within a run.
type OutcomeRecord struct {
	ID         int64  `gorm:"column:id;primaryKey" json:"-"`
	RunID      string `gorm:"column:run_id;index" json:"run_id"`
	Instrument string `gorm:"column:instrument" json:"instrument"`
	Status     string `gorm:"column:status" json:"status"`
	OrderID    string `gorm:"column:order_id" json:"order_id,omitempty"`
	Error      string `gorm:"column:error;type:TEXT" json:"error,omitempty"`
}

func (OutcomeRecord) TableName() string { return "run_outcomes" }
