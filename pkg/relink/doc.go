// Package relink keeps converter plugin relations pointing at the
// current distribution versions when a data product forks.
package relink
