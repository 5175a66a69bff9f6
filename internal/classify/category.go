package classify

import (
	"fmt"
	"strings"
)

// Category is the coarse content bucket assigned to an entry.
type Category int

// Categories. Archive is what the MIME top-level type "application" maps to,
// which covers far more than archives; the name is kept for consumers that
// already depend on it.
const (
	Text Category = iota
	Image
	Audio
	Archive
	Video
	Unknown
)

var categoryNames = [...]string{
	Text:    "TEXT",
	Image:   "IMAGE",
	Audio:   "AUDIO",
	Archive: "ARCHIVE",
	Video:   "VIDEO",
	Unknown: "UNKNOWN",
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{Text, Image, Audio, Archive, Video, Unknown}
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "UNKNOWN"
	}
	return categoryNames[c]
}

// MarshalText encodes the category as its upper-case name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name, case-insensitively.
func (c *Category) UnmarshalText(b []byte) error {
	name := strings.ToUpper(string(b))
	for i, n := range categoryNames {
		if n == name {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", b)
}

// categoryForType maps a MIME top-level type to a category.
func categoryForType(topLevel string) (Category, bool) {
	switch topLevel {
	case "text":
		return Text, true
	case "image":
		return Image, true
	case "audio":
		return Audio, true
	case "video":
		return Video, true
	case "application":
		return Archive, true
	}
	return Unknown, false
}
