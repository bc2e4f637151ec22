// Package process serves enrichment and submission through trusted local
// commands configured in a hooks file, for offline runs and shop-side scripts.
package process
