// Package addon prices add-on selections.
//
// A Selection keeps the order of the JSON object it was decoded from, so
// Breakdown lines come back in the order the client sent them. Quantities
// are counted in sale units: extraStorageGB is sold in blocks of 100, so a
// quantity of 2 means 200 GB.
package addon
