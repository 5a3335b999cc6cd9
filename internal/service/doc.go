// Package service coordinates one analysis pass of the netaudit application.
//
// AnalysisService builds the topology from config records, then runs issue
// detection, the demand simulation and the discovery simulation concurrently
// over the same read-only topology, and assembles a domain.Summary.
//
// # Event System
//
// Progress is published on an EventBus (run started, topology built, each
// analysis finished, run completed or failed). Publishing is non-blocking so a
// slow subscriber never stalls a run.
package service
