// Package annotation implements the on-disk annotation store.
//
// Every image has at most one annotation file, stored next to it with a
// fixed suffix appended to the full image path:
//
//	photos/cat.jpg -> photos/cat.jpg.txt
//
// # File Format
//
// UTF-8 text, one detection per line, no header. Fields are tab-separated in
// this order:
//
//	label  confidence  x  y  height  width
//
// The confidence is written with the shortest representation that parses
// back to the same float64; coordinates are plain decimal integers. Every
// line, including the last, ends with a newline.
//
// # Staleness
//
// An annotation file is fresh when its modification time is strictly after
// the image's. IsStale recomputes this from filesystem metadata on every call
// and keeps no state.
//
// # Concurrency
//
// Writes go to a temporary file in the image's directory which is then
// renamed over the annotation file, so readers never observe a partial file.
// Two processes annotating the same image race with last-write-wins.
package annotation
