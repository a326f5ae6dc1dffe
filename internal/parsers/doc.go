// Package parsers turns downloaded registry documents into structured
// fields. Text is pulled from the document's text layer where one exists
// and from OCR otherwise (see subpackage extract); the per-category
// subpackages apply ordered pattern rules to the text. The registry in this
// package dispatches an artifact to the parser matching its instrument
// type.
package parsers
