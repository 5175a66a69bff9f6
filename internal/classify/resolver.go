package classify

import (
	"github.com/CageChen/fsclass/internal/fs"
	"github.com/CageChen/fsclass/internal/logging"
)

// Resolver assigns a Category to a path. A MIME guess always wins over
// content sniffing; the text heuristic runs only when there is no guess.
type Resolver struct {
	fsys    fs.FileSystem
	guesser MimeGuesser
	log     logging.Logger
}

// NewResolver creates a Resolver. A nil guesser means NoGuess and a nil logger discards.
func NewResolver(fsys fs.FileSystem, guesser MimeGuesser, log logging.Logger) *Resolver {
	if guesser == nil {
		guesser = NoGuess
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{fsys: fsys, guesser: guesser, log: log}
}

// Category resolves the category of path.
func (r *Resolver) Category(path string) Category {
	r.log.Debug("determining MIME category", "path", path)

	info, err := r.fsys.Stat(path)
	if err != nil {
		r.log.Warn("path does not exist", "path", path, "error", err)
		return Unknown
	}
	if info.IsDir {
		r.log.Info("path is a directory, not a file", "path", path)
		return Unknown
	}

	if mediaType, ok := r.guesser.Guess(path); ok {
		top := topLevelType(mediaType)
		r.log.Debug("MIME type identified", "path", path, "type", top)
		c, known := categoryForType(top)
		if !known {
			r.log.Warn("unknown MIME type", "path", path, "type", top)
		}
		return c
	}

	r.log.Warn("no MIME type could be identified", "path", path)
	if looksLikeText(r.fsys, path, r.log) {
		r.log.Info("identified as text by content analysis", "path", path)
		return Text
	}
	r.log.Warn("content analysis gives unknown category", "path", path)
	return Unknown
}
