package dto

import "vodvault/internal/domain"

// StartDownloadRequest is the payload of POST /api/downloads.
type StartDownloadRequest struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}

func (r *StartDownloadRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, requireField(r.URL, "url")...)
	errs = append(errs, validateURL(r.URL, "url")...)

	switch domain.MediaFormat(r.Format) {
	case "", domain.FormatVideo, domain.FormatAudio:
	default:
		errs = append(errs, ValidationError{Field: "format", Message: "must be video or audio"})
	}
	return errs
}
