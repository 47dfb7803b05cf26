package reconcile

import "fmt"

// Summary tracks counts and errors from one reconcile batch.
type Summary struct {
	Success  int      `json:"success"`
	Failure  int      `json:"failure"`
	Total    int      `json:"total"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Errors   []string `json:"errors,omitempty"`
}

// AddErrorf records a failed entity with a formatted message.
func (s *Summary) AddErrorf(format string, args ...any) {
	s.Failure++
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Message is the one-line outcome reported to callers.
func (s Summary) Message() string {
	return fmt.Sprintf("Processed %d out of %d players. Failed: %d", s.Success, s.Total, s.Failure)
}

// String returns a key=value summary for logs.
func (s Summary) String() string {
	return fmt.Sprintf("success=%d failure=%d total=%d inserted=%d updated=%d",
		s.Success, s.Failure, s.Total, s.Inserted, s.Updated)
}
