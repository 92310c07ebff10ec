package model

// Solution is the normalized response returned for a successful command.
type Solution struct {
	URL       string            `json:"url"`
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers"`
	Response  string            `json:"response"`
	UserAgent string            `json:"userAgent,omitempty"`
	Cookies   []Cookie          `json:"cookies"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Envelope is the JSON body written for every /v1 call.
type Envelope struct {
	Status   string    `json:"status"`
	Message  string    `json:"message,omitempty"`
	Kind     string    `json:"kind,omitempty"`
	Solution *Solution `json:"solution,omitempty"`

	StartTimestamp int64 `json:"startTimestamp,omitempty"`
	EndTimestamp   int64 `json:"endTimestamp,omitempty"`
}
