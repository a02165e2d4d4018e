// Package service contains the application use cases built on the
// generation pipeline.
//
// TranslationService answers a single request from the result cache when it
// can and otherwise calls the generation client with retries, storing the
// result for later requests. It also satisfies generation.Client, which lets
// a batch.Coordinator run cache-fronted batches.
//
// EnrichmentService turns vocabulary words into generation requests, runs
// them as one batch and writes the generated translations or sentences back
// through a WordRepository.
package service
