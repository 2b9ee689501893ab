// Package slug derives URL-safe identifiers from human-entered names.
//
// Make lower-cases the input, strips diacritics via Unicode decomposition
// (golang.org/x/text/unicode/norm), folds a handful of letters that have no
// decomposition (ß, æ, ø, ł ...) and collapses everything that is not an
// ASCII letter or digit into a single separator. The output always matches
// [a-z0-9-]* with no separator at either end, and Make(Make(s)) == Make(s).
//
//	slug.Make("Café Müller")                 // "cafe-muller"
//	slug.Make("  Acme & Sons, Ltd. ")        // "acme-sons-ltd"
//	slug.Make("Long name", slug.MaxLength(4)) // "long"
package slug
