// Package catalog holds the plan limits, add-on prices and provisioning
// defaults as one immutable value.
//
// Services receive a *Catalog explicitly; nothing reads the tables through a
// package-level variable. Tests build their own tables with New.
package catalog
