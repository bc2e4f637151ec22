// Package enrichment decorates a ports.Enricher with a ports.EnrichmentCache.
package enrichment
