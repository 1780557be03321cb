// Package registry seeds the shell's app catalogue.
//
// The nine built-in airport apps are always registered. An optional YAML
// manifest can add operator-specific apps or override the built-in
// descriptors; manifest entries are registered first so they win the
// shell's first-registration-wins rule.
package registry
