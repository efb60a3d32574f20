package matrix

import "strings"

// MetacountMarker is the reserved prefix HTSeq uses for summary rows
// (__no_feature, __ambiguous, ...).
const MetacountMarker = "__"

// IsMetacount reports whether the identifier names a metacount row.
// The check is an exact prefix match, case-sensitive.
func IsMetacount(id string) bool {
	return strings.HasPrefix(id, MetacountMarker)
}

// StripMarker removes a single leading metacount marker from the identifier.
// Identifiers without the marker are returned unchanged.
func StripMarker(id string) string {
	return strings.TrimPrefix(id, MetacountMarker)
}

// Row is a single parsed line of a counts matrix. Classification happens at
// parse time and never changes afterwards.
type Row struct {
	// Name is the row identifier exactly as it appears in the input,
	// marker included for metacount rows.
	Name string

	// Counts holds the parsed sample values, one per sample column.
	Counts []float64

	// Metacount is true when Name carries the reserved marker.
	Metacount bool

	// Text is the trimmed input line. Output writers emit this verbatim so
	// the original numeric formatting survives the round trip.
	Text string

	// Line is the 1-based input line number, for diagnostics.
	Line int
}

// Feature returns the row identifier with the metacount marker stripped.
func (r *Row) Feature() string {
	return StripMarker(r.Name)
}
