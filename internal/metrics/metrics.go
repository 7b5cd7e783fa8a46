// Package metrics
package metrics

const AeolusNamespace = "aeolus"
