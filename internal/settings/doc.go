// Package settings provides typed access to the monitoring configuration
// stored by the backend.
//
// Read returns what the backend has, or nil. ReadOrDefault applies
// backend.DefaultConfig explicitly. Write sends the whole configuration
// after validating it.
package settings
