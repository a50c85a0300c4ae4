package ffprobe

import (
	"math"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio", Index: 1, SampleRate: "48000", Channels: 2},
			{CodecType: "audio", Index: 2},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
			BitRate:  "32000",
			Tags:     map[string]string{"COMMENT": "hello"},
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	audio, ok := result.FirstAudio()
	if !ok || audio.Index != 1 || audio.SampleRateHz() != 48000 {
		t.Fatalf("unexpected first audio stream: %+v ok=%v", audio, ok)
	}
	if result.Comment() != "hello" {
		t.Fatalf("unexpected comment %q", result.Comment())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Streams: []Stream{{CodecType: "audio", SampleRate: "n/a"}},
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
	if audio, _ := result.FirstAudio(); audio.SampleRateHz() != 0 {
		t.Fatalf("expected unknown sample rate")
	}
}

func TestParseVideoWithoutAudio(t *testing.T) {
	payload := []byte(`{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":320,"height":240}],"format":{"filename":"a.mp4","nb_streams":1,"format_name":"mov,mp4"}}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 0 {
		t.Fatalf("expected no audio streams")
	}
	if _, ok := result.FirstAudio(); ok {
		t.Fatal("expected FirstAudio to report absence")
	}
	if result.VideoStreamCount() != 1 || result.Format.FormatName != "mov,mp4" {
		t.Fatalf("unexpected probe result %+v", result)
	}
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
