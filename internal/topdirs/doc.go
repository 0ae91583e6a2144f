// Package topdirs computes recursive disk usage for every directory below a root
// and ranks the largest ones.
//
// The default engine decomposes the tree into one task per directory and joins
// the subtree totals (fork/join). An alternative engine walks the tree with
// fastwalk and rolls file sizes up to their ancestors. Both produce one Record
// per visited directory, which Rank deduplicates, sorts and truncates.
package topdirs
