package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"remaster/internal/logging"
	"remaster/internal/services"
	"remaster/internal/tagcode"
	"remaster/internal/textutil"
)

// ErrINIFormat reports an ini file without a volume line.
var ErrINIFormat = errors.New("ini: missing volume line")

// INI is the content of a companion ini file.
type INI struct {
	Volume int
	// Tag is the decoded tag line, empty when absent.
	Tag string
}

// Marshal renders the file: a volume line and, when Tag is set, the
// whitespace-encoded tag line.
func (i INI) Marshal() ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "volume %d\n", i.Volume)
	if i.Tag != "" {
		code, err := tagcode.Encode(i.Tag)
		if err != nil {
			return nil, err
		}
		b.WriteString(code)
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

// ParseINI reads an ini file produced by MameINI.
func ParseINI(r io.Reader) (INI, error) {
	var (
		ini       INI
		sawVolume bool
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !sawVolume {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			if len(fields) != 2 || fields[0] != "volume" {
				return INI{}, fmt.Errorf("%w: unexpected line %q", ErrINIFormat, line)
			}
			level, err := strconv.Atoi(fields[1])
			if err != nil {
				return INI{}, fmt.Errorf("ini: volume %q: %w", fields[1], err)
			}
			ini.Volume = level
			sawVolume = true
			continue
		}
		code, ok := tagcode.Line(line)
		if !ok {
			continue
		}
		tag, err := tagcode.Decode(code)
		if err != nil {
			return INI{}, fmt.Errorf("ini: tag line: %w", err)
		}
		ini.Tag = tag
		break
	}
	if err := scanner.Err(); err != nil {
		return INI{}, fmt.Errorf("ini: read: %w", err)
	}
	if !sawVolume {
		return INI{}, ErrINIFormat
	}
	return ini, nil
}

// ReadINI parses the ini file at path.
func ReadINI(path string) (INI, error) {
	f, err := os.Open(path)
	if err != nil {
		return INI{}, err
	}
	defer f.Close()
	return ParseINI(f)
}

// MameINI writes the companion ini file for the unit.
func (u *Unit) MameINI(_ context.Context, opts INIOptions) (INIResult, error) {
	out := opts.Output
	if out == "" {
		out = textutil.INIOutputPath(u.Path, opts.TargetDB)
	}
	ini := INI{Volume: u.Level(opts.TargetDB), Tag: opts.Tag}
	result := INIResult{Output: out, Level: ini.Volume}

	data, err := ini.Marshal()
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "ini", "encode tag", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return result, services.Wrap(services.ErrFilesystem, "ini", "create output dir", filepath.Dir(out), err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return result, services.Wrap(services.ErrFilesystem, "ini", "write", out, err)
	}
	u.logger.Info("ini written",
		logging.Int("volume", ini.Volume),
		logging.Bool("measured", u.Measurement.Valid),
		logging.String("output", out),
	)
	return result, nil
}
