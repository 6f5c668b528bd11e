// Package audio holds the PCM plumbing behind a voice session.
//
// Microphone windows are captured as float32 samples at InputSampleRate and
// encoded to 16-bit little-endian PCM before they are streamed upstream.
// Synthesized speech comes back as 16-bit PCM at OutputSampleRate, is decoded
// into a Buffer and scheduled on an OutputContext, a software clock domain
// that a pull-based speaker renders from.
//
// A Scheduler keeps the playback cursor and the set of live units so that
// consecutive chunks play gaplessly and can all be cut on barge-in.
package audio
