// Package jitter absorbs network jitter for incoming speech.
//
// Each remote speaker gets a Buffer that places frames on a fixed grid:
// LatencyFrames periods after the start of a talk-spurt, then one frame
// period apart. A gap longer than the frame period plus JitterTolerance
// starts a new talk-spurt. Manager decodes frames per speaker and schedules
// them onto a Renderer with their pose.
package jitter
