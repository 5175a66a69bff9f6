package classify

import (
	"fmt"
	"time"

	"github.com/CageChen/fsclass/internal/fs"
	"github.com/CageChen/fsclass/internal/logging"
)

// Entry is the classified description of one filesystem node.
type Entry struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	Size       uint64    `json:"size"`
	Type       string    `json:"type"`
	Mime       string    `json:"mime,omitempty"`
	Category   Category  `json:"category"`
	CreatedAt  time.Time `json:"created"`
	ModifiedAt time.Time `json:"modified"`
	Language   string    `json:"language,omitempty"`
}

// Listing holds the immediate children of one directory.
type Listing struct {
	Parent  *string `json:"parent"`
	Entries []Entry `json:"entries"`
}

// Epoch is the timestamp used when the source has no creation or modification time.
var Epoch = time.Unix(0, 0).UTC()

// Placeholder is the entry returned by Builder.Entry when metadata cannot be read.
func Placeholder() Entry {
	now := time.Now()
	return Entry{
		Category:   Text,
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// LanguageFunc names the programming or markup language of a file name, or
// returns "" when it has none.
type LanguageFunc func(name string) string

// Builder composes metadata, labels and categories into entries.
type Builder struct {
	fsys      fs.FileSystem
	labeler   *Labeler
	guesser   MimeGuesser
	resolver  *Resolver
	languages LanguageFunc
	log       logging.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLabeler replaces the default extension labels.
func WithLabeler(l *Labeler) Option {
	return func(b *Builder) { b.labeler = l }
}

// WithGuesser replaces the extension-based MIME guesser.
func WithGuesser(g MimeGuesser) Option {
	return func(b *Builder) { b.guesser = g }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logging.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithLanguages fills Entry.Language for files.
func WithLanguages(f LanguageFunc) Option {
	return func(b *Builder) { b.languages = f }
}

// NewBuilder creates a Builder reading from fsys.
func NewBuilder(fsys fs.FileSystem, opts ...Option) *Builder {
	b := &Builder{
		fsys:    fsys,
		labeler: DefaultLabeler(),
		guesser: ExtensionGuesser{},
		log:     logging.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.resolver = NewResolver(fsys, b.guesser, b.log)
	return b
}

// Resolver returns the category resolver the builder uses.
func (b *Builder) Resolver() *Resolver {
	return b.resolver
}

// Stat classifies path, returning an error when its metadata cannot be read.
func (b *Builder) Stat(path string) (Entry, error) {
	b.log.Debug("building entry", "path", path)

	info, err := b.fsys.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("stat %s: %w", path, err)
	}

	name := entryName(path)
	e := Entry{
		Name:       name,
		Path:       path,
		IsDir:      info.IsDir,
		Type:       b.labeler.Label(extension(name)),
		Category:   b.resolver.Category(path),
		CreatedAt:  orEpoch(info.Created),
		ModifiedAt: orEpoch(info.ModTime),
	}
	if !info.IsDir && info.Size > 0 {
		e.Size = uint64(info.Size)
	}
	if mediaType, ok := b.guesser.Guess(path); ok {
		b.log.Debug("MIME type for path", "path", path, "mime", mediaType)
		e.Mime = mediaType
	}
	if b.languages != nil && !info.IsDir {
		e.Language = b.languages(name)
	}
	return e, nil
}

// Entry classifies path and degrades to Placeholder when metadata is unavailable.
func (b *Builder) Entry(path string) Entry {
	e, err := b.Stat(path)
	if err != nil {
		b.log.Error("failed to retrieve metadata", "path", path, "error", err)
		return Placeholder()
	}
	return e
}

// List classifies the immediate children of dir. Children whose metadata cannot
// be read are left out; failing to read dir itself is an error.
func (b *Builder) List(dir string) (Listing, error) {
	b.log.Debug("listing directory", "path", dir)

	children, err := b.fsys.ReadDir(dir)
	if err != nil {
		return Listing{Entries: []Entry{}}, fmt.Errorf("read dir %s: %w", dir, err)
	}

	l := Listing{Entries: make([]Entry, 0, len(children))}
	if parent, ok := parentOf(dir); ok {
		l.Parent = &parent
	}
	for _, child := range children {
		childPath := joinChild(dir, child.Name)
		e, err := b.Stat(childPath)
		if err != nil {
			b.log.Debug("skipping unreadable entry", "path", childPath, "error", err)
			continue
		}
		l.Entries = append(l.Entries, e)
	}
	b.log.Info("directory processed", "path", dir, "entries", len(l.Entries))
	return l, nil
}

// ListOrEmpty is List with read failures degraded to an empty listing.
func (b *Builder) ListOrEmpty(dir string) Listing {
	l, err := b.List(dir)
	if err != nil {
		b.log.Error("failed to read directory", "path", dir, "error", err)
		return Listing{Entries: []Entry{}}
	}
	return l
}

func orEpoch(t time.Time) time.Time {
	if t.IsZero() {
		return Epoch
	}
	return t
}
