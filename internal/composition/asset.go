package composition

import (
	"strings"

	"github.com/google/uuid"
)

// MediaType classifies an attached asset.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
)

// MediaAsset is a media item attached to a composition. Exactly one of
// UploadedRef or InlineData is ever transmitted to the backend; UploadedRef
// wins once an upload succeeds.
type MediaAsset struct {
	ID          string    `json:"id"`
	Type        MediaType `json:"type"`
	SourceRef   string    `json:"source_ref"`
	UploadedRef string    `json:"uploaded_ref,omitempty"`
	InlineData  []byte    `json:"inline_data,omitempty"`
	MIMEType    string    `json:"mime_type"`
	Filename    string    `json:"filename"`
	Note        string    `json:"note,omitempty"`
}

// NewMediaAsset builds an asset with a fresh identifier.
func NewMediaAsset(t MediaType, filename, mimeType string, data []byte) MediaAsset {
	return MediaAsset{
		ID:         uuid.NewString(),
		Type:       t,
		Filename:   strings.TrimSpace(filename),
		MIMEType:   strings.TrimSpace(mimeType),
		InlineData: data,
	}
}

// Uploaded reports whether the asset already has a backend reference key.
func (a MediaAsset) Uploaded() bool {
	return strings.TrimSpace(a.UploadedRef) != ""
}

// Size returns the byte size of the locally held payload.
func (a MediaAsset) Size() int {
	return len(a.InlineData)
}
