// Package tags stamps remastered files with the identifying comment and
// reads it back.
//
// MP3 files are edited in place through ID3v2; every other container is
// rewritten by ffmpeg with stream copy so only the metadata changes. Read
// prefers the native tag readers and falls back to ffprobe for containers
// they do not understand, such as AVI.
package tags
