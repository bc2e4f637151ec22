/*
Package http exposes quote wizard sessions over a JSON API and talks to
channel backends for enrichment and submission.

Server routes (chi):

	GET    /health
	GET    /definition
	GET    /metrics                      (with WithMetricsGatherer)
	POST   /sessions                     {"preselect": "hilux-2020"}
	GET    /sessions/{id}
	DELETE /sessions/{id}
	GET    /sessions/{id}/events         SSE: "view" and "catalog" events
	POST   /sessions/{id}/toggle         {"stepId", "productId"}
	PUT    /sessions/{id}/selection      {"stepId", "productIds"}
	PUT    /sessions/{id}/fields         {"stepId", "fieldId", "value"}
	POST   /sessions/{id}/blur           {"stepId", "fieldId"}
	POST   /sessions/{id}/vehicle        {"make", "model", "year"}
	POST   /sessions/{id}/next | previous | restart | submit
	POST   /sessions/{id}/jump           {"index"}

Intents answer with the wizard Result. Errors carry the current view so a
client can render validation messages without a second request:

	404 unknown session
	422 invalid form, incomplete step, no line items for the channel
	501 no submitter configured

Client implements ports.Enricher and ports.Submitter against a backend that
serves POST /enrich and POST /orders.
*/
package http
