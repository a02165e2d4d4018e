// Package app builds the object graph shared by the server and the CLI from
// a loaded configuration: the cache backend, the generation client, the
// translation service, the batch coordinator and the enrichment service.
package app
