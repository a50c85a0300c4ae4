// Package textutil provides path and text helpers shared by the batch
// pipeline: NFC display names, filesystem-safe tokens, and the
// "<target>dB/{media,ini}" output namespace layout.
package textutil
