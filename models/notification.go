package models

const (
	EmailStatusSuccess = "success"
	EmailStatusError   = "error"
)

// EmailResult is the advisory outcome of an email send.
type EmailResult struct {
	Status    string `json:"status"`
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

func (r EmailResult) Sent() bool {
	return r.Status == EmailStatusSuccess
}
