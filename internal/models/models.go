// Package models holds the shared request/response shapes and the
// prompt constants.
package models

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the body returned by POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// UploadResponse is the body returned by POST /upload-pdf.
type UploadResponse struct {
	Message     string `json:"message"`
	ChunkStored int    `json:"chunk_stored"`
}

// ErrorResponse is the generic error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}
