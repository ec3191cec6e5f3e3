package parser

// Document is the parsed view of a page.
type Document struct {
	// Text is the visible text, with text nodes separated by spaces.
	Text string
	// Links are absolute anchor targets in document order.
	Links []string
	Title string
}
