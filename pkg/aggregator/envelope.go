package aggregator

import "github.com/matzehuels/synopackage/pkg/spk"

// MessageResultEmpty is the failure message for catalogs that could not be
// decoded.
const MessageResultEmpty = "result is empty"

// MessageInvalidParameters is the failure message for names missing from
// the registry.
const MessageInvalidParameters = "Given parameters are not valid"

// Parameters echoes the query back to the client.
type Parameters struct {
	SourceName string `json:"sourceName"`
	Model      string `json:"model"`
	Version    string `json:"version"`
	IsBeta     bool   `json:"isBeta"`
	Keyword    string `json:"keyword,omitempty"`
}

// Envelope is the response to a package query.
type Envelope struct {
	Success      bool          `json:"success"`
	ErrorMessage *string       `json:"errorMessage"`
	Parameters   Parameters    `json:"parameters"`
	Packages     []spk.Package `json:"packages"`
}

// Error returns the error message, or "" on success.
func (e *Envelope) Error() string {
	if e.ErrorMessage == nil {
		return ""
	}
	return *e.ErrorMessage
}

func success(params Parameters, pkgs []spk.Package) *Envelope {
	if pkgs == nil {
		pkgs = []spk.Package{}
	}
	return &Envelope{Success: true, Parameters: params, Packages: pkgs}
}

func failure(params Parameters, msg string) *Envelope {
	return &Envelope{Success: false, ErrorMessage: &msg, Parameters: params}
}
