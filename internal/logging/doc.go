// Package logging wires log/slog for cardpress: a compact console handler
// for interactive use, a JSON handler for machine consumption, typed attr
// helpers, and standardized field names shared by the publish pipeline.
package logging
