// Package imaging loads images for detection and renders detections back
// onto them.
//
// All pixel coordinates in this package are 0-based with the origin at the
// top-left corner: X increases rightward and Y increases downward. Boxes use
// an inclusive top-left corner and an exclusive bottom-right corner.
//
// # Loading
//
// FileSource decodes an image from disk on every call and applies the EXIF
// orientation tag, so the pixel space detections are expressed in matches
// what a viewer displays. Nothing is cached between images.
//
// ImageCache wraps a FileSource for long-running processes. Entries are
// keyed by path and dropped as soon as the file's mtime or size changes. The
// cache is bounded and evicts the least recently used image when full.
//
// # Rendering
//
// DrawDetections outlines each detection in a colour derived from its label
// and tags it with the label text. SaveAnnotated writes the rendered copy to
// "<name>.annotated.<ext>" next to the source image; the original file is
// never modified.
package imaging
