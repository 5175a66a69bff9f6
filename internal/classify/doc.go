// Package classify describes filesystem entries without reading their full
// content: an extension label, a MIME guess, and a coarse category that falls
// back to a printable-ASCII check of the first bytes when no guess exists.
//
// Every operation comes in two forms. Stat and List return errors; Entry and
// ListOrEmpty never fail and substitute a placeholder entry or an empty listing,
// which is what a browsing UI usually wants.
package classify
