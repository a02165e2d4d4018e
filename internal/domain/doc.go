// Package domain contains the vocabulary entities enriched by the pipeline.
// It has no knowledge of storage or of the generation backend.
package domain
