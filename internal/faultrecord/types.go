package faultrecord

// FaultRequest is the POST /api/v1/faults payload. The occurance spelling
// is the API's own schema; all three dates carry the record date.
type FaultRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"desc"`
	UserID          int64   `json:"user_id"`
	FirstOccurrence string  `json:"first_occurance"`
	LastOccurrence  string  `json:"last_occurance"`
	RecordDate      string  `json:"record_date"`
	Signals         []int64 `json:"signals"`
	SourceLink      string  `json:"source_link"`
}

// UpdateRequest is the POST /api/v1/updates payload.
type UpdateRequest struct {
	UserID      int64  `json:"user_id"`
	Description string `json:"desc"`
	FaultID     int64  `json:"fault_id"`
	FaultStatus string `json:"fault_status"`
	RecordDate  string `json:"record_date"`
	SourceLink  string `json:"source_link"`
}

// User is a fault-record directory entry.
type User struct {
	ID    int64  `json:"user_id"`
	Email string `json:"email"`
}

// Signal is a catalog entry pairing a monitoring source with a named
// signal.
type Signal struct {
	ID     int64  `json:"signal_id"`
	Name   string `json:"signal"`
	Source string `json:"source"`
}

// Fault is a stored fault record as returned by GET /api/v1/faults.
type Fault struct {
	ID         int64  `json:"fault_id"`
	Name       string `json:"name"`
	RecordDate string `json:"record_date"`
	SourceLink string `json:"source_link"`
}
