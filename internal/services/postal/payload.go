package postal

import (
	"cardpress/internal/composition"
	"cardpress/internal/crop"
	"cardpress/internal/filter"
)

// AssetPayload is the wire form of a media asset. Exactly one of Key or
// Inline is populated: the upload reference wins whenever it exists so the
// backend never receives redundant bytes.
type AssetPayload struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Key      string `json:"key,omitempty"`
	Inline   []byte `json:"inline,omitempty"`
	MIMEType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`
	Note     string `json:"note,omitempty"`
}

// CardPayload is the create-or-update request body. A non-empty ID signals
// an update of an existing document instead of a create.
type CardPayload struct {
	ID               string                  `json:"id,omitempty"`
	FrontImageKey    string                  `json:"frontImageKey,omitempty"`
	FrontImageInline []byte                  `json:"frontImageInline,omitempty"`
	Crop             crop.State              `json:"crop"`
	Filter           filter.State            `json:"filter"`
	Caption          composition.Caption     `json:"caption"`
	Message          string                  `json:"message"`
	Recipient        string                  `json:"recipient,omitempty"`
	Sender           string                  `json:"sender,omitempty"`
	Location         composition.Location    `json:"location"`
	Stamp            composition.Stamp       `json:"stamp"`
	Stickers         []composition.Sticker   `json:"stickers,omitempty"`
	Plan             string                  `json:"plan"`
	Assets           []AssetPayload          `json:"assets,omitempty"`
}

// SaveResponse is the create-or-update response.
type SaveResponse struct {
	Success  bool   `json:"success"`
	PublicID string `json:"publicId,omitempty"`
	ID       string `json:"id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BuildPayload assembles the minimal outgoing payload for a composition.
// Upload keys are preferred over inline bytes wherever both exist, for the
// front image and for every asset alike.
func BuildPayload(comp *composition.Composition) CardPayload {
	payload := CardPayload{
		ID:        comp.RemoteID,
		Crop:      comp.Crop,
		Filter:    comp.Filter,
		Caption:   comp.Caption,
		Message:   comp.Message,
		Recipient: comp.Recipient,
		Sender:    comp.Sender,
		Location:  comp.Location,
		Stamp:     comp.Stamp,
		Stickers:  comp.Stickers,
		Plan:      string(comp.Plan),
	}

	if comp.FrontImageKey != "" {
		payload.FrontImageKey = comp.FrontImageKey
	} else {
		payload.FrontImageInline = comp.FrontImageData
	}

	for _, asset := range comp.Assets {
		ap := AssetPayload{
			ID:       asset.ID,
			Type:     string(asset.Type),
			MIMEType: asset.MIMEType,
			Filename: asset.Filename,
			Note:     asset.Note,
		}
		if asset.Uploaded() {
			ap.Key = asset.UploadedRef
		} else {
			ap.Inline = asset.InlineData
		}
		payload.Assets = append(payload.Assets, ap)
	}

	return payload
}
