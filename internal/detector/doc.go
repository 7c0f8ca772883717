// Package detector contains cat detection backends.
//
// A Detector interprets an opaque camera frame and reports whether a cat is
// present with at least the requested confidence. The frame is never decoded
// here: backends are free to ignore it, as the random detector does.
package detector
