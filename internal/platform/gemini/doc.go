// Package gemini provides an implementation of the generation.Client interface
// that uses Google's Gemini API to produce translations and example sentences.
//
// This package is an infrastructure adapter: it translates generation.Request
// values into Gemini calls and Gemini responses back into generation.Payload
// values without exposing the external service to the rest of the application.
//
// Key components:
//
// 1. Client:
//   - Implements generation.Client with one API call per Generate
//   - Applies the per-call timeout and optional client-side pacing
//
// 2. Prompt Management:
//   - Prompts are embedded text/template files, one per task
//   - Responses are requested as JSON matching a fixed schema
//
// 3. Error Handling:
//   - Every failure is classified into the generation error taxonomy
//   - Retrying is left to the caller (see internal/retry)
package gemini
