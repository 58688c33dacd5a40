// Package container handles the page-framed output of streaming encoders.
//
// ExtractFrames pulls raw codec segments out of Ogg pages without any
// continuation reassembly; PageSplitter turns an arbitrary byte stream back
// into whole pages.
package container
