package pack

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/gyaneshwarpardhi/unitmap/internal/atomicfile"
	"github.com/gyaneshwarpardhi/unitmap/internal/metrics"
)

// Archive options.
const (
	OptionUncompressed = "uncompressed"
	OptionLevelPrefix  = "level=" // level=fastest|default|better|best
)

// Extensions of unit files written by Archive.
const (
	ExtCompressed   = ".unit.tar.zst"
	ExtUncompressed = ".unit.tar"
)

// Archive writes each unit as a tar file, zstd-compressed unless the
// "uncompressed" option is set.
type Archive struct {
	workers int
}

// NewArchive returns an Archive packing up to workers units concurrently.
func NewArchive(workers int) *Archive {
	return &Archive{workers: workers}
}

func (a *Archive) Name() string { return "archive" }

type archiveOpts struct {
	compress bool
	level    zstd.EncoderLevel
}

func parseOptions(options []string) (archiveOpts, error) {
	o := archiveOpts{compress: true, level: zstd.SpeedDefault}
	for _, opt := range options {
		switch {
		case opt == OptionUncompressed:
			o.compress = false
		case strings.HasPrefix(opt, OptionLevelPrefix):
			ok, lvl := zstd.EncoderLevelFromString(strings.TrimPrefix(opt, OptionLevelPrefix))
			if !ok {
				return o, fmt.Errorf("unknown compression level in option %q", opt)
			}
			o.level = lvl
		default:
			return o, fmt.Errorf("unknown archive option %q", opt)
		}
	}
	return o, nil
}

// Pack implements Backend.
func (a *Archive) Pack(ctx context.Context, req Request) (*Manifest, error) {
	opts, err := parseOptions(req.Options)
	if err != nil {
		return nil, err
	}
	if req.Files == nil {
		return nil, errors.New("archive backend: no file system")
	}
	units, err := Group(req)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan jobResult[int, int64], len(units))
	pool := newWorkerPool[int, int64](ctx, a.workers, len(units), func(ctx context.Context, i int) (int64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		size, err := a.writeUnit(req, &units[i], opts)
		if err != nil {
			cancel()
		}
		return size, err
	})
	for i := range units {
		if err := pool.Submit(ctx, i, results); err != nil {
			break
		}
	}
	pool.Drain()
	close(results)

	packed := 0
	var errs []error
	for r := range results {
		if r.err != nil {
			if !errors.Is(r.err, context.Canceled) {
				errs = append(errs, fmt.Errorf("unit %s: %w", units[r.payload].Key, r.err))
			}
			continue
		}
		packed++
		units[r.payload].Size = r.value
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if packed != len(units) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("packed %d of %d units", packed, len(units))
	}
	metrics.UnitsPacked.Add(float64(len(units)))

	return &Manifest{BuildID: req.BuildID, Backend: a.Name(), Platform: req.Platform, Units: units}, nil
}

// writeUnit writes u under the output directory and returns the final file
// size.
func (a *Archive) writeUnit(req Request, u *Unit, opts archiveOpts) (int64, error) {
	ext := ExtCompressed
	if !opts.compress {
		ext = ExtUncompressed
	}
	file := u.Key + ext
	if !filepath.IsLocal(filepath.FromSlash(file)) {
		return 0, fmt.Errorf("unit file %q escapes the output directory", file)
	}
	u.File = file
	dst := filepath.Join(req.OutputDir, filepath.FromSlash(file))

	return atomicfile.Write(dst, func(w io.Writer) error {
		if !opts.compress {
			return writeTar(w, req.Files, u)
		}
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(opts.level))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		if err := writeTar(enc, req.Files, u); err != nil {
			enc.Close()
			return err
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("zstd close: %w", err)
		}
		return nil
	})
}

// writeTar writes the assets then the absorbed files of u as one tar stream.
func writeTar(w io.Writer, files fs.FS, u *Unit) error {
	tw := tar.NewWriter(w)
	for _, p := range append(append([]string(nil), u.Assets...), u.Absorbed...) {
		if err := addFile(tw, files, p); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("tar close: %w", err)
	}
	return nil
}

func addFile(tw *tar.Writer, fsys fs.FS, p string) error {
	f, err := fsys.Open(path.Clean(p))
	if err != nil {
		return fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat asset: %w", err)
	}
	hdr := &tar.Header{
		Name:    p,
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header %s: %w", p, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("tar write %s: %w", p, err)
	}
	return nil
}
