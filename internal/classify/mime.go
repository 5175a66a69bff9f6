package classify

import (
	"mime"
	"strings"
)

// MimeGuesser guesses a MIME type for a path without reading it.
type MimeGuesser interface {
	// Guess returns a media type such as "image/png" and whether a guess exists.
	Guess(path string) (string, bool)
}

// GuesserFunc adapts a function to MimeGuesser.
type GuesserFunc func(path string) (string, bool)

// Guess calls f(path).
func (f GuesserFunc) Guess(path string) (string, bool) {
	return f(path)
}

// NoGuess never produces a guess, which leaves categorization to content sniffing.
var NoGuess MimeGuesser = GuesserFunc(func(string) (string, bool) { return "", false })

// ExtensionGuesser guesses from the file extension using the mime package's
// registry. Only Go's built-in table (html, css, js, json, xml, pdf, svg, wasm
// and the common image types) is the same everywhere; other extensions are
// looked up in the host's mime.types files, so their mime and category can
// differ between machines. A TableGuesser gives host-independent results.
type ExtensionGuesser struct{}

// Guess implements MimeGuesser. Parameters such as charset are dropped.
func (ExtensionGuesser) Guess(path string) (string, bool) {
	ext := extension(entryName(path))
	if ext == "" {
		return "", false
	}
	typ := mime.TypeByExtension("." + ext)
	if typ == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(typ)
	if err != nil {
		return "", false
	}
	return mediaType, true
}

// TableGuesser guesses from a fixed extension to media type table. Keys are
// extensions without the leading dot and are matched as given.
type TableGuesser map[string]string

// Guess implements MimeGuesser.
func (t TableGuesser) Guess(path string) (string, bool) {
	ext := extension(entryName(path))
	if ext == "" {
		return "", false
	}
	mediaType, ok := t[ext]
	return mediaType, ok
}

// topLevelType returns the part of a media type before the slash.
func topLevelType(mediaType string) string {
	top, _, _ := strings.Cut(mediaType, "/")
	return strings.ToLower(strings.TrimSpace(top))
}
