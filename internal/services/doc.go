// Package services defines shared utilities consumed by the publish pipeline
// steps and the backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp draft keys, pipeline step names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (retryable vs rejected) consistent across components.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform.
package services
