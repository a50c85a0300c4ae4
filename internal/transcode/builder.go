package transcode

import (
	"strconv"
	"strings"

	"remaster/internal/config"
)

// Command is a fully built ffmpeg invocation.
type Command struct {
	Binary string
	Args   []string
	// Output is the file the command must leave behind, if any.
	Output string
}

// String renders the command for logs.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Binary)
	for _, arg := range c.Args {
		if arg == "" || strings.ContainsAny(arg, " \t'\"") {
			arg = strconv.Quote(arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Profile is the compressed audio format remastered files carry.
type Profile struct {
	Codec      string
	SampleRate int
	Channels   int
	Bitrate    string
}

// ProfileFromConfig maps the [encoding] section onto a Profile.
func ProfileFromConfig(enc config.Encoding) Profile {
	return Profile{
		Codec:      enc.AudioCodec,
		SampleRate: enc.SampleRate,
		Channels:   enc.Channels,
		Bitrate:    enc.Bitrate,
	}
}

// DefaultProfile is 44.1 kHz stereo MP3 at 192 kbit/s.
func DefaultProfile() Profile {
	return ProfileFromConfig(config.Default().Encoding)
}

func preamble(binary string) Command {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return Command{
		Binary: binary,
		Args:   []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"},
	}
}

// BuildEncodeAudio compresses the normalized WAV into the target profile.
func BuildEncodeAudio(binary, wavPath, out string, p Profile) Command {
	cmd := preamble(binary)
	cmd.Args = append(cmd.Args,
		"-i", wavPath,
		"-vn",
		"-ar", strconv.Itoa(p.SampleRate),
		"-ac", strconv.Itoa(p.Channels),
		"-b:a", p.Bitrate,
		"-c:a", p.Codec,
		out,
	)
	cmd.Output = out
	return cmd
}

// BuildRemux stream-copies the first video stream of source (when present)
// next to the first audio stream of audioPath into dest.
func BuildRemux(binary, source, audioPath, dest string) Command {
	cmd := preamble(binary)
	cmd.Args = append(cmd.Args,
		"-i", source,
		"-i", audioPath,
		"-c", "copy",
		"-map", "0:v:0?",
		"-map", "1:a:0",
		dest,
	)
	cmd.Output = dest
	return cmd
}

// BuildDecodePCM decodes the first audio stream of path to interleaved
// signed 16-bit little-endian PCM on stdout.
func BuildDecodePCM(binary, path string, channels, sampleRate int) Command {
	cmd := preamble(binary)
	cmd.Args = append(cmd.Args,
		"-i", path,
		"-vn",
		"-map", "0:a:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"-",
	)
	return cmd
}

// BuildMetadataRewrite copies every stream of src into dst, dropping all
// existing metadata and setting a single comment.
func BuildMetadataRewrite(binary, src, dst, comment string) Command {
	cmd := preamble(binary)
	cmd.Args = append(cmd.Args,
		"-i", src,
		"-map", "0",
		"-c", "copy",
		"-map_metadata", "-1",
		"-metadata", "comment="+comment,
		dst,
	)
	cmd.Output = dst
	return cmd
}

// BuildLoudnessScan runs the loudnorm analysis pass over a file and prints
// its JSON report on stderr. The -loglevel is raised to info because the
// report is emitted at that level.
func BuildLoudnessScan(binary, path string) Command {
	cmd := preamble(binary)
	cmd.Args = []string{"-hide_banner", "-nostdin", "-nostats", "-loglevel", "info",
		"-i", path,
		"-vn",
		"-af", "loudnorm=print_format=json",
		"-f", "null", "-",
	}
	return cmd
}
