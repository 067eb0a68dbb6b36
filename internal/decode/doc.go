// Package decode turns hub response bodies into normalized resource records.
//
// Hubs answer in one of three layouts, tried in this order:
//
//	[{"tasks": [...], "count": 3}]   array wrapped structured
//	{"tasks": [...], "count": 3}     direct structured
//	[{...}, {...}]                   direct array of entities
//
// The first layout that parses wins. Bodies that match none but explicitly
// carry zero items (empty, null, [], {"collection": [], "count": 0}) decode
// as Empty. Everything else becomes a Fallback result holding exactly one
// synthetic record that describes the failure, so a view always has
// something to render.
//
// Field values are read leniently: ids may be numbers, booleans may be
// strings, dates may use either RFC 3339 or "2006-01-02 15:04:05". A value
// that cannot be read is treated as absent and replaced by its default.
package decode
