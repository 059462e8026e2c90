// Package domain contains the pure bank types: a Bank maps note names to a
// NoteSource holding one OGG and one MP3 URL.
//
// The package performs no I/O. Decoding a bank payload is the only operation
// that can fail, and it reports failures as *DecodeError.
package domain
