// Package services defines HTTP clients for the engine's external collaborators.
//
// # Ranking Provider
//
// [RankService] calls the remote ranking service that reviews a baseline
// order sample. The provider accepts a model name per request so the
// verification adapter can try a fast primary model and fall back to a
// cheaper secondary one. Rate-limit and quota responses map to distinct
// sentinel errors because the adapter treats them differently: rate limits
// are retried with backoff, quota exhaustion is an operational alert.
//
// # Catalog Resolver
//
// [CatalogService] performs the expensive cross-platform track lookup the
// identity cache exists to avoid repeating. A miss maps to
// [shared.ErrTrackNotFound]; everything else wraps [shared.ErrAPIRequest].
//
// Both clients take an injected *http.Client so tests can swap the transport.
package services
