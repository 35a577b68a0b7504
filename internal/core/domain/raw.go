package domain

// RawDocument represents the opaque bytes of an uploaded PDF.
// It is the input to extraction, before any page text exists.
type RawDocument struct {
	// FileName is the name the document was uploaded under.
	FileName string

	// MIMEType is the content type, normally "application/pdf".
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// Size returns the byte length of the content.
func (r RawDocument) Size() int64 {
	return int64(len(r.Content))
}

// RawIssue is an issue before normalisation, as decoded from model JSON
// or produced by a foreign detector. Any field may be missing or carry
// the wrong JSON type.
type RawIssue map[string]any

// IssueToRaw converts a typed issue into its raw form.
func IssueToRaw(i Issue) RawIssue {
	raw := RawIssue{
		"page":         i.Page,
		"type":         string(i.Type),
		"message":      i.Message,
		"original":     i.Original,
		"suggestion":   i.Suggestion,
		"locationHint": i.LocationHint,
	}
	if i.ScreenshotURL != "" {
		raw["screenshotUrl"] = i.ScreenshotURL
	}
	return raw
}
