// Package handler serves a read-only HTTP view of a completed analysis.
//
// Routes:
//
//	GET /api/summary        full summary
//	GET /api/graph          vis-network nodes and edges
//	GET /api/issues         issues, ?type= filters by issue type
//	GET /api/edges          edges with capacity and synthetic load
//	GET /api/simlog/{node}  discovery events received by one router
//	GET /healthz            liveness
//	GET /metrics            Prometheus metrics
//
// Until the first analysis completes every /api route answers 503.
package handler
