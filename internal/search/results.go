/*
Package search indexes the distinct event names of an interaction store so
they can be looked up by the words they are made of.

Event names are dotted identifiers and CamelCase class names
(org.eclipse.search.ui.openSearchDialog, FileOpenCommand). Each name is
indexed with its word split ("org eclipse search ui open search dialog")
so that a query for "search" or "open" finds every name containing it.
*/
package search

// Hit is a single search result with relevance score.
type Hit struct {
	Name  string  `json:"name"`
	Field string  `json:"field"`
	Count int     `json:"count"`
	Score float64 `json:"score"`
}
