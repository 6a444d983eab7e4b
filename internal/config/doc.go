// Package config resolves tool settings from defaults, an optional YAML or
// JSON file, LEAFLABEL_* environment variables and command-line flags, in
// increasing order of precedence.
//
// Keys use dotted paths (pipeline.canny.low, cluster.seed); the matching
// environment variable replaces dots with underscores
// (LEAFLABEL_PIPELINE_CANNY_LOW, LEAFLABEL_CLUSTER_SEED).
package config
