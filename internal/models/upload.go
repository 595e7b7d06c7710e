package models

// UploadedFile is a transient file attached to an analysis request
type UploadedFile struct {
	Data     string `json:"data" validate:"required,base64"` // Base64 payload
	MIMEType string `json:"mime_type" validate:"required"`
	Name     string `json:"name"`
}
