package models

type SubmitRequest struct {
	SchemaVersion string         `json:"schema_version"`
	Answers       map[string]any `json:"answers"`
}

type SubmitResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	SchemaVersion string `json:"schema_version"`
}

// ReportStatusResponse is returned by the download endpoint whenever the
// report itself is not ready to stream.
type ReportStatusResponse struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	FailedStage  *string `json:"failed_stage,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}
