// Package batch provides shared helpers for tools that operate on multiple
// items per call: argument normalization and per-item result aggregation.
package batch
