// Package output renders command results as a table, JSON or YAML.
//
// Values that know their tabular shape implement Tabler; anything else is
// rendered by reflection over its json tags.
package output
