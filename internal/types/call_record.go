package types

// CallStatus is the terminal state of a call
type CallStatus string

const (
	StatusCompleted   CallStatus = "completed"
	StatusAbandoned   CallStatus = "abandoned"
	StatusTransferred CallStatus = "transferred"
)

// CallOutcome is the business result of a call
type CallOutcome string

const (
	OutcomeResolved  CallOutcome = "resolved"
	OutcomeEscalated CallOutcome = "escalated"
	OutcomeFollowUp  CallOutcome = "follow_up"
)

// AllStatuses lists every CallStatus in a stable order
var AllStatuses = []CallStatus{StatusCompleted, StatusAbandoned, StatusTransferred}

// AllOutcomes lists every CallOutcome in a stable order
var AllOutcomes = []CallOutcome{OutcomeResolved, OutcomeEscalated, OutcomeFollowUp}

// CallRecord is one row of call-center activity as stored in the analytics table.
// Start and end times are epoch milliseconds; Duration is in minutes.
type CallRecord struct {
	RowID         int64       `json:"row_id" validate:"gt=0"`
	CallID        string      `json:"call_id" validate:"required"`
	AgentID       string      `json:"agent_id" validate:"required"`
	CallStartTime int64       `json:"call_start_time" validate:"gte=0"`
	CallEndTime   int64       `json:"call_end_time" validate:"gtefield=CallStartTime"`
	Duration      float64     `json:"duration" validate:"gte=0"`
	DepartmentID  int         `json:"department_id" validate:"gt=0"`
	CompanyID     int         `json:"company_id" validate:"gt=0"`
	CallStatus    CallStatus  `json:"call_status" validate:"oneof=completed abandoned transferred"`
	CallOutcome   CallOutcome `json:"call_outcome" validate:"oneof=resolved escalated follow_up"`
}

// Column names of the call_analytics table, in projection order
const (
	ColRowID         = "row_id"
	ColCallID        = "call_id"
	ColAgentID       = "agent_id"
	ColCallStartTime = "call_start_time"
	ColCallEndTime   = "call_end_time"
	ColDuration      = "duration"
	ColDepartmentID  = "department_id"
	ColCompanyID     = "company_id"
	ColCallStatus    = "call_status"
	ColCallOutcome   = "call_outcome"
)

// Columns is the fixed column list shared by the CSV artifact, the SELECT
// projection and result mapping.
var Columns = []string{
	ColRowID,
	ColCallID,
	ColAgentID,
	ColCallStartTime,
	ColCallEndTime,
	ColDuration,
	ColDepartmentID,
	ColCompanyID,
	ColCallStatus,
	ColCallOutcome,
}

// ColumnType is the declared storage type of a column
type ColumnType string

const (
	TypeInt    ColumnType = "INT"
	TypeLong   ColumnType = "LONG"
	TypeDouble ColumnType = "DOUBLE"
	TypeString ColumnType = "STRING"
)

// Schema maps every column to its declared type in the analytics table
var Schema = map[string]ColumnType{
	ColRowID:         TypeLong,
	ColCallID:        TypeString,
	ColAgentID:       TypeString,
	ColCallStartTime: TypeLong,
	ColCallEndTime:   TypeLong,
	ColDuration:      TypeDouble,
	ColDepartmentID:  TypeInt,
	ColCompanyID:     TypeInt,
	ColCallStatus:    TypeString,
	ColCallOutcome:   TypeString,
}

// TimeUnit marks the unit the timestamp fields of a batch are expressed in
type TimeUnit string

const (
	UnitSeconds      TimeUnit = "seconds"
	UnitMilliseconds TimeUnit = "milliseconds"
)

// ParseTimeUnit accepts the long names and the short forms "s" and "ms"
func ParseTimeUnit(s string) (TimeUnit, bool) {
	switch s {
	case "s", "sec", string(UnitSeconds):
		return UnitSeconds, true
	case "ms", string(UnitMilliseconds):
		return UnitMilliseconds, true
	}
	return "", false
}

// Batch is a set of call records together with the unit of their timestamps
type Batch struct {
	Unit    TimeUnit
	Records []CallRecord
}

// RawRecord is one textual row read from a tabular file, keyed by column name
type RawRecord struct {
	Line   int
	Fields map[string]string
}
