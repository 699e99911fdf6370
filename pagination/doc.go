// Package pagination splits a measured document into fixed-height pages.
//
// The packer works on any node type. Callers describe the document as an
// ordered list of sections, each with its own node and the blocks it may be
// split into, and supply a Measurer that reports the vertical footprint of a
// node. Pack is deterministic: identical heights and ordering always produce
// the same partition.
//
// Packing is first fit without backtracking. A section that fits on the
// current page is placed whole; otherwise its blocks are placed one by one,
// opening a new page whenever the next block would exceed the usable height.
// A block taller than a whole page is still placed and becomes the only
// occupant of an overflowing page. Content is never dropped.
package pagination
