// Package file loads pipeline configuration and PII detector rules
// from a TOML file. Rule sets are validated at load time so a broken
// rule fails startup instead of a masking run.
package file
