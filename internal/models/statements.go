package models

type StatementState string

const (
	StatementStatePending    StatementState = "pending"
	StatementStateQueued     StatementState = "queued"
	StatementStateProcessing StatementState = "processing"
	StatementStateCompleted  StatementState = "completed"
	StatementStateFailed     StatementState = "failed"
)

type Statement struct {
	ID           int64          `json:"id"`
	Account      string         `json:"account"`
	Period       string         `json:"period"`
	Status       StatementState `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

type Account struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StatementsResponse represents the API response for the statement list
type StatementsResponse = APIResponse[[]Statement]

type AccountsResponse = APIResponse[[]Account]
