package media_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"remaster/internal/audio"
	"remaster/internal/extract"
	"remaster/internal/loudness"
	"remaster/internal/media"
	"remaster/internal/media/ffprobe"
	"remaster/internal/services"
	"remaster/internal/tags"
	"remaster/internal/testsupport"
	"remaster/internal/transcode"
)

const stamp = "Remastered by: Team CoinOPS"

type fakeRunner struct {
	mu      sync.Mutex
	calls   []transcode.Command
	fail    func(transcode.Command) bool
	encoded []float64
}

func isEncode(cmd transcode.Command) bool { return slices.Contains(cmd.Args, "-b:a") }

func (f *fakeRunner) Run(ctx context.Context, cmd transcode.Command) (transcode.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()
	if f.fail != nil && f.fail(cmd) {
		return transcode.Result{}, &transcode.ExitError{Command: cmd, ExitCode: 1, Stderr: "simulated failure"}
	}
	if isEncode(cmd) {
		input := cmd.Args[slices.Index(cmd.Args, "-i")+1]
		buf, _, err := audio.DecodeFile(input)
		if err != nil {
			return transcode.Result{}, err
		}
		lufs, err := loudness.BS1770Meter{}.Integrated(ctx, buf)
		if err != nil {
			return transcode.Result{}, err
		}
		f.mu.Lock()
		f.encoded = append(f.encoded, lufs)
		f.mu.Unlock()
	}
	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte("remuxed"), 0o644); err != nil {
			return transcode.Result{}, err
		}
	}
	return transcode.Result{}, nil
}

type fakeTagger struct {
	err   error
	paths []string
}

func (f *fakeTagger) Stamp(_ context.Context, path, _ string) error {
	f.paths = append(f.paths, path)
	return f.err
}

func videoOnlyProbe(context.Context, string, string) (ffprobe.Result, error) {
	return ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}, nil
}

func newOptions(runner transcode.Runner, tagger media.Tagger) media.Options {
	return media.Options{
		FFmpegBinary:  "ffmpeg",
		FFprobeBinary: "ffprobe",
		Runner:        runner,
		Tagger:        tagger,
		Probe:         videoOnlyProbe,
	}
}

func quietWAV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "game", "tone.wav")
	testsupport.WriteSineWAV(t, path, testsupport.DefaultSine())
	return path
}

func openUnit(t *testing.T, path string, opts media.Options) *media.Unit {
	t.Helper()
	unit, err := media.Open(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = unit.Close() })
	return unit
}

func TestMameINIForQuietWAV(t *testing.T) {
	path := quietWAV(t)
	unit := openUnit(t, path, newOptions(&fakeRunner{}, &fakeTagger{}))

	if !unit.HasAudio() || !unit.Measurement.Valid {
		t.Fatalf("expected measured audio, got %+v", unit.Measurement)
	}
	if math.Abs(unit.Measurement.LUFS+30) > 0.3 {
		t.Fatalf("expected about -30 LUFS, got %.2f", unit.Measurement.LUFS)
	}
	if unit.Difference(-24, false) <= 0 {
		t.Fatalf("quiet source must yield a positive difference")
	}

	res, err := unit.MameINI(context.Background(), media.INIOptions{TargetDB: -24, Tag: stamp})
	if err != nil {
		t.Fatalf("MameINI: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "-24dB", "ini", "tone.ini")
	if res.Output != want || res.Level != 6 {
		t.Fatalf("unexpected result %+v, want output %q level 6", res, want)
	}
	data, err := os.ReadFile(res.Output)
	if err != nil {
		t.Fatalf("read ini: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 2 || lines[0] != "volume 6" {
		t.Fatalf("unexpected ini content %q", data)
	}
	if len(lines[1]) != 8*len(stamp) || strings.Trim(lines[1], " \t") != "" {
		t.Fatalf("tag line has length %d, want %d of whitespace", len(lines[1]), 8*len(stamp))
	}
	parsed, err := media.ReadINI(res.Output)
	if err != nil {
		t.Fatalf("ReadINI: %v", err)
	}
	if parsed.Volume != 6 || parsed.Tag != stamp {
		t.Fatalf("unexpected parsed ini %+v", parsed)
	}
}

func TestMameINIWithoutTag(t *testing.T) {
	unit := openUnit(t, quietWAV(t), newOptions(&fakeRunner{}, &fakeTagger{}))
	out := filepath.Join(t.TempDir(), "custom.ini")
	if _, err := unit.MameINI(context.Background(), media.INIOptions{Output: out, TargetDB: -36}); err != nil {
		t.Fatalf("MameINI: %v", err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "volume -6\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestRemasterNormalizesEncodesRemuxesAndTags(t *testing.T) {
	path := quietWAV(t)
	runner := &fakeRunner{}
	tagger := &fakeTagger{}
	unit := openUnit(t, path, newOptions(runner, tagger))

	res, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24, Tag: stamp})
	if err != nil {
		t.Fatalf("Remaster: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "-24dB", "media", "tone.wav")
	if res.Output != want || res.Branch != media.BranchNormalized || !res.Tagged {
		t.Fatalf("unexpected result %+v", res)
	}
	if math.Abs(res.GainDB-6) > 0.3 {
		t.Fatalf("expected about +6 dB gain, got %.2f", res.GainDB)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected encode and remux, got %d calls", len(runner.calls))
	}
	remux := runner.calls[1]
	if !slices.Contains(remux.Args, "0:v:0?") || !slices.Contains(remux.Args, "1:a:0") || remux.Args[slices.Index(remux.Args, "-i")+1] != path {
		t.Fatalf("unexpected remux args %v", remux.Args)
	}
	if len(runner.encoded) != 1 || math.Abs(runner.encoded[0]+24) > 0.3 {
		t.Fatalf("encoder input should measure about -24 LUFS, got %v", runner.encoded)
	}
	if len(tagger.paths) != 1 || tagger.paths[0] != res.Output {
		t.Fatalf("tagger not applied to output: %v", tagger.paths)
	}
	data, err := os.ReadFile(res.Output)
	if err != nil || string(data) != "remuxed" {
		t.Fatalf("expected remuxed output, got %q err=%v", data, err)
	}
	entries, _ := os.ReadDir(filepath.Dir(res.Output))
	if len(entries) != 1 {
		t.Fatalf("staging file left behind: %d entries", len(entries))
	}
}

func TestRemasterIsRepeatable(t *testing.T) {
	runner := &fakeRunner{}
	unit := openUnit(t, quietWAV(t), newOptions(runner, &fakeTagger{}))
	first, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24})
	if err != nil {
		t.Fatalf("first Remaster: %v", err)
	}
	second, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24})
	if err != nil {
		t.Fatalf("second Remaster: %v", err)
	}
	if first.Output != second.Output {
		t.Fatalf("outputs differ: %q vs %q", first.Output, second.Output)
	}
	if second.Tagged {
		t.Fatal("empty tag must not stamp")
	}
}

func TestSilentSourceIsCopiedAndGetsVolumeZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attract.mp4")
	testsupport.WriteFile(t, path, 4096)
	runner := &fakeRunner{}
	tagger := &fakeTagger{}
	unit := openUnit(t, path, newOptions(runner, tagger))

	if unit.HasAudio() || unit.Measurement.Valid {
		t.Fatal("video-only source must have no audio")
	}
	if unit.Extraction.Kind != services.KindNoAudio {
		t.Fatalf("expected NoAudioTrack, got %q", unit.Extraction.Kind)
	}
	if unit.Difference(-24, true) != 0 {
		t.Fatal("difference without measurement must be 0")
	}

	res, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24, Tag: stamp})
	if err != nil {
		t.Fatalf("Remaster: %v", err)
	}
	if res.Branch != media.BranchCopied || res.Tagged {
		t.Fatalf("unexpected result %+v", res)
	}
	src, _ := os.ReadFile(path)
	dst, _ := os.ReadFile(res.Output)
	if !bytes.Equal(src, dst) {
		t.Fatal("copy-through output must be byte-identical")
	}
	if len(runner.calls) != 0 || len(tagger.paths) != 0 {
		t.Fatal("copy-through must neither transcode nor tag")
	}

	ini, err := unit.MameINI(context.Background(), media.INIOptions{TargetDB: -24})
	if err != nil {
		t.Fatalf("MameINI: %v", err)
	}
	if ini.Level != 0 {
		t.Fatalf("expected volume 0, got %d", ini.Level)
	}
}

func TestUnmeasurableAudioIsCopied(t *testing.T) {
	opts := newOptions(&fakeRunner{}, &fakeTagger{})
	opts.Meter = loudness.MeterFunc(func(context.Context, *audio.Buffer) (float64, error) {
		return 0, loudness.ErrSilent
	})
	unit := openUnit(t, quietWAV(t), opts)
	if !unit.HasAudio() || unit.Measurement.Valid || !errors.Is(unit.MeasureErr, loudness.ErrSilent) {
		t.Fatalf("expected audio without measurement, got %+v err=%v", unit.Measurement, unit.MeasureErr)
	}
	res, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24})
	if err != nil || res.Branch != media.BranchCopied {
		t.Fatalf("expected copy-through, got %+v err=%v", res, err)
	}
	if unit.Level(-24) != 0 {
		t.Fatal("unmeasured level must be 0")
	}
}

func TestRemasterSwallowsTagFailure(t *testing.T) {
	tagger := &fakeTagger{err: services.Wrap(services.ErrTagWrite, "tag", "ffmpeg", "unsupported", nil)}
	unit := openUnit(t, quietWAV(t), newOptions(&fakeRunner{}, tagger))
	res, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24, Tag: stamp})
	if err != nil {
		t.Fatalf("tag failure must not fail the job: %v", err)
	}
	if res.Tagged || !errors.Is(res.TagErr, services.ErrTagWrite) {
		t.Fatalf("expected recorded tag failure, got %+v", res)
	}
}

func TestRemasterReportsTranscodeFailure(t *testing.T) {
	runner := &fakeRunner{fail: func(cmd transcode.Command) bool { return !isEncode(cmd) }}
	unit := openUnit(t, quietWAV(t), newOptions(runner, &fakeTagger{}))
	res, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24})
	if services.Kind(err) != services.KindTranscode {
		t.Fatalf("expected TranscodeFailure, got %v", err)
	}
	if _, statErr := os.Stat(res.Output); !os.IsNotExist(statErr) {
		t.Fatalf("failed remux must not leave an output: %v", statErr)
	}
	entries, _ := os.ReadDir(filepath.Dir(res.Output))
	if len(entries) != 0 {
		t.Fatalf("staging file left behind: %d entries", len(entries))
	}
}

func TestCloseRemovesTempDirOnce(t *testing.T) {
	unit, err := media.Open(context.Background(), quietWAV(t), newOptions(&fakeRunner{}, &fakeTagger{}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dir := unit.TempDir()
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("temp dir should exist while open: %v", err)
	}
	if err := unit.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := unit.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("temp dir should be removed: %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	_, err := media.Open(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), media.Options{})
	if services.Kind(err) != services.KindFilesystem {
		t.Fatalf("expected FilesystemError, got %v", err)
	}
	_, err = media.Open(context.Background(), t.TempDir(), media.Options{})
	if services.Kind(err) != services.KindValidation {
		t.Fatalf("expected ValidationError for a directory, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()
	path := filepath.Join(root, "clip.mp4")
	testsupport.WriteFile(t, path, 64)
	opts := newOptions(&fakeRunner{}, &fakeTagger{})
	opts.TempRoot = root
	if _, err := media.Open(ctx, path, opts); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	entries, _ := os.ReadDir(root)
	if len(entries) != 1 {
		t.Fatalf("temp dir must be released on failure, found %d entries", len(entries))
	}
}

func TestParseINI(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    media.INI
		wantErr bool
	}{
		{name: "volume only", input: "volume -3\n", want: media.INI{Volume: -3}},
		{name: "leading blank", input: "\nvolume 2\n", want: media.INI{Volume: 2}},
		{name: "with tag", input: "volume 0\n" + " \t     \t\n", want: media.INI{Volume: 0, Tag: "A"}},
		{name: "missing volume", input: "", wantErr: true},
		{name: "garbage", input: "gain 3\n", wantErr: true},
		{name: "bad level", input: "volume loud\n", wantErr: true},
		{name: "bad tag", input: "volume 1\n \t \n", wantErr: false, want: media.INI{Volume: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := media.ParseINI(strings.NewReader(tc.input))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseINI: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestEndToEndWithFFmpeg(t *testing.T) {
	testsupport.RequireFFmpeg(t)
	dir := t.TempDir()
	cfg := testsupport.NewConfig(t)
	opts := media.OptionsFromConfig(cfg, nil)

	silent := filepath.Join(dir, "silent.mp4")
	testsupport.WriteVideo(t, silent, 1, false, 0)
	unit := openUnit(t, silent, opts)
	res, err := unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24, Tag: stamp})
	if err != nil {
		t.Fatalf("Remaster silent: %v", err)
	}
	src, _ := os.ReadFile(silent)
	dst, _ := os.ReadFile(res.Output)
	if res.Branch != media.BranchCopied || !bytes.Equal(src, dst) {
		t.Fatalf("silent video must be copied verbatim: %+v", res)
	}

	toned := filepath.Join(dir, "toned.mp4")
	testsupport.WriteVideo(t, toned, 3, true, -30)
	unit = openUnit(t, toned, opts)
	if unit.Extraction.Source != extract.AttemptFFmpeg {
		t.Fatalf("expected ffmpeg extraction, got %+v", unit.Extraction)
	}
	res, err = unit.Remaster(context.Background(), media.RemasterOptions{TargetDB: -24, Tag: stamp})
	if err != nil {
		t.Fatalf("Remaster toned: %v", err)
	}
	if res.Branch != media.BranchNormalized || !res.Tagged {
		t.Fatalf("unexpected result %+v", res)
	}
	probe, err := ffprobe.Inspect(context.Background(), "ffprobe", res.Output)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if probe.VideoStreamCount() != 1 || probe.AudioStreamCount() != 1 {
		t.Fatalf("expected one video and one audio stream, got %d/%d", probe.VideoStreamCount(), probe.AudioStreamCount())
	}
	comment, err := tags.NewWriter("ffmpeg", "ffprobe", nil, nil).Read(context.Background(), res.Output)
	if err != nil || comment != stamp {
		t.Fatalf("expected tag %q, got %q err=%v", stamp, comment, err)
	}
}
