// Package generation defines the boundary between the enrichment pipeline and
// the external text-generation capability. It holds the immutable request and
// payload values exchanged with a Client, and the closed error taxonomy every
// Client implementation maps its failures into.
//
// Implementations live under internal/platform (for example the Gemini
// client); the pipeline itself only depends on the Client interface.
package generation
