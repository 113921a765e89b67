package publisher

import (
	validation "github.com/jellydator/validation"

	appvalidation "github.com/lawgram/lawgram/internal/validation"
)

// MediaPayload is the creation request for one media object.
type MediaPayload struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// Validate checks the payload before it is sent upstream. The platform only
// accepts publicly reachable image URLs with a known image extension.
func (m MediaPayload) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.ImageURL, validation.Required, appvalidation.ImageURL{}),
		validation.Field(&m.Caption, validation.Required),
	)
}

// accountResponse is the answer of the /me endpoint.
type accountResponse struct {
	ID string `json:"id"`
}

// mediaCreationResponse is the answer of the media creation endpoint.
type mediaCreationResponse struct {
	ID    string        `json:"id"`
	Error *platformFail `json:"error,omitempty"`
}

// statusResponse is the answer of a media status poll.
type statusResponse struct {
	StatusCode string `json:"status_code"`
}

// publishResponse is the answer of the publish endpoint.
type publishResponse struct {
	ID    string        `json:"id"`
	Error *platformFail `json:"error,omitempty"`
}

// platformFail is the platform's error envelope, carried through for
// diagnostics when an id is missing from an otherwise successful answer.
type platformFail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}
