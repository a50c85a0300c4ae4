// Package transcode builds and runs the ffmpeg invocations remaster needs:
// encoding normalized PCM, remuxing it next to the untouched video stream,
// decoding audio the native decoders cannot read, rewriting container
// metadata, and the loudnorm analysis pass.
//
// Builders are pure and return a Command; Executor runs one, checks the exit
// status, and verifies the declared output file exists and is non-empty.
// Failures carry services.ErrTranscode.
package transcode
