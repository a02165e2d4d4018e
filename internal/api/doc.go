// Package api exposes the enrichment pipeline over HTTP. It decodes and
// validates requests, calls the translation service and the batch
// coordinator, and maps generation failures to status codes carrying a
// recovery suggestion.
package api
