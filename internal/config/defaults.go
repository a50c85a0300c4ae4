package config

import "runtime"

const (
	defaultLogDir        = "~/.local/share/remaster/logs"
	defaultTargetDB      = -24.0
	defaultMeter         = MeterBS1770
	defaultTagText       = "Remastered by: Team CoinOPS"
	defaultFFmpegBinary  = "ffmpeg"
	defaultFFprobeBinary = "ffprobe"
	defaultAudioCodec    = "libmp3lame"
	defaultAudioExt      = ".mp3"
	defaultSampleRate    = 44100
	defaultChannels      = 2
	defaultBitrate       = "192k"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultHistoryFile   = "history.db"
	defaultRetentionDays = 30
	maxDefaultWorkers    = 32
)

// Meter implementations accepted by loudness.meter.
const (
	MeterBS1770 = "bs1770"
	MeterFFmpeg = "ffmpeg"
)

// Default extension allow-lists per batch mode.
var (
	defaultRemasterExtensions = []string{".avi", ".mp4"}
	defaultINIExtensions      = []string{".avi", ".mp4", ".wav", ".mp3"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir(),
		},
		Loudness: Loudness{
			TargetDB: defaultTargetDB,
			Meter:    defaultMeter,
		},
		Tag: Tag{
			Enabled: true,
			Text:    defaultTagText,
		},
		Encoding: Encoding{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			AudioCodec:    defaultAudioCodec,
			AudioExt:      defaultAudioExt,
			SampleRate:    defaultSampleRate,
			Channels:      defaultChannels,
			Bitrate:       defaultBitrate,
		},
		Batch: Batch{
			RemasterExtensions: append([]string(nil), defaultRemasterExtensions...),
			INIExtensions:      append([]string(nil), defaultINIExtensions...),
			ProgressBar:        true,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}

// DefaultWorkers mirrors the thread pool sizing the batch jobs were tuned
// against: min(32, NumCPU+4).
func DefaultWorkers() int {
	n := runtime.NumCPU() + 4
	if n > maxDefaultWorkers {
		return maxDefaultWorkers
	}
	return n
}

// WorkerCount returns the configured pool size, resolving 0 to the default.
func (c *Config) WorkerCount() int {
	if c.Batch.Workers > 0 {
		return c.Batch.Workers
	}
	return DefaultWorkers()
}
