// Package catalog loads wizard definitions (steps, products, channels) from
// YAML or JSON files and checks them for authoring mistakes.
//
// Visibility rules are decoded leniently: a rule that cannot be understood
// becomes a malformed rule that the engine shows anyway, and Validate
// reports it so it can be fixed before release.
package catalog
