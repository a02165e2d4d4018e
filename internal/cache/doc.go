// Package cache implements the generation result cache: a key/value store of
// serialized payloads with a per-entry expiry and a hard bound on the number
// of entries.
//
// ResultCache owns the expiry and eviction rules and serializes every
// mutation; the Store backends (MemoryStore here, the SQL stores under
// internal/platform) only persist entries.
package cache
