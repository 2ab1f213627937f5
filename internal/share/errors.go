package share

import "errors"

var (
	// ErrRender is returned when the result image cannot be encoded.
	ErrRender = errors.New("share: render failed")
	// ErrUploadDisabled is returned when no upload API key is configured.
	ErrUploadDisabled = errors.New("share: upload disabled")
	// ErrUpload is returned when the image host refuses or garbles an upload.
	ErrUpload = errors.New("share: upload failed")
)
