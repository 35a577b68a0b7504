// Package extractors provides implementations of the PageExtractor interface.
// Each backend decodes PDF bytes into per-page plain text in its own way:
//
//   - native: pure Go decoding in memory (default)
//   - tabula: layout-aware decoding that keeps reading order in columns
//   - pdftotext: the poppler command line tool, paging on form feeds
//
// Backends are registered with the Factory at startup.
package extractors
