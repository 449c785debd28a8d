// File path: internal/api/types.go
package api

import (
	"github.com/raglens/raglens/internal/assembler"
	"github.com/raglens/raglens/internal/ingest"
	"github.com/raglens/raglens/internal/retriever"
)

type ingestRequest struct {
	Path   string `json:"path,omitempty"`
	Dir    string `json:"dir,omitempty"`
	Bucket bool   `json:"bucket,omitempty"`
}

type ingestResponse struct {
	Reports []ingest.Report `json:"reports"`
}

type searchResponse struct {
	Query   string             `json:"query"`
	Mode    string             `json:"mode"`
	Top     int                `json:"top"`
	Results []retriever.Result `json:"results"`
}

type chatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Question  string `json:"question"`
	Mode      string `json:"mode,omitempty"`
	Top       string `json:"top,omitempty"`
	Stream    bool   `json:"stream,omitempty"`
}

type chatResponse struct {
	SessionID string               `json:"sessionId"`
	Answer    string               `json:"answer"`
	Citations []assembler.Citation `json:"citations"`
	Provider  string               `json:"provider"`
}
