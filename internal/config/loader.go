package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Environment overrides applied on every load.
const (
	EnvS3AccessKey = "UNITMAP_S3_ACCESS_KEY"
	EnvS3SecretKey = "UNITMAP_S3_SECRET_KEY"
)

// Loader reads a YAML config file and watches it for changes.
type Loader struct {
	path     string
	mu       sync.RWMutex
	current  *BuildConfig
	onChange []func(*BuildConfig)
	watcher  *fsnotify.Watcher
}

// NewLoader creates a Loader and performs the initial load.
func NewLoader(path string) (*Loader, error) {
	l := &Loader{path: path}
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = cfg
	return l, nil
}

// Path returns the config file path.
func (l *Loader) Path() string { return l.path }

// Config returns the current (latest) configuration.
func (l *Loader) Config() *BuildConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// OnChange registers a callback invoked whenever the config reloads.
func (l *Loader) OnChange(fn func(*BuildConfig)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = append(l.onChange, fn)
}

// Watch starts a background goroutine that hot-reloads the config on file changes.
// Call the returned stop function to clean up.
func (l *Loader) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	// Watch the directory: editors replace files instead of writing in place.
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("config watcher add %s: %w", l.path, err)
	}
	l.watcher = w
	target := filepath.Clean(l.path)

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					if _, err := l.Reload(); err != nil {
						slog.Warn("config reload failed, keeping previous config", "path", l.path, "err", err)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "err", err)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

// Reload forces an immediate re-read of the config file.
func (l *Loader) Reload() (*BuildConfig, error) {
	cfg, err := l.load()
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.current = cfg
	callbacks := make([]func(*BuildConfig), len(l.onChange))
	copy(callbacks, l.onChange)
	l.mu.Unlock()
	for _, fn := range callbacks {
		fn(cfg)
	}
	return cfg, nil
}

func (l *Loader) load() (*BuildConfig, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", l.path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", l.path, err)
	}
	// Relative project paths are relative to the config file.
	base := filepath.Dir(l.path)
	if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Join(base, cfg.Project.Root)
	}
	if cfg.Project.DependencyFile != "" && !filepath.IsAbs(cfg.Project.DependencyFile) {
		cfg.Project.DependencyFile = filepath.Join(base, cfg.Project.DependencyFile)
	}
	if cfg.Build.LabelsFile != "" && !filepath.IsAbs(cfg.Build.LabelsFile) {
		cfg.Build.LabelsFile = filepath.Join(base, cfg.Build.LabelsFile)
	}
	if !filepath.IsAbs(cfg.Build.OutputDirectory) {
		cfg.Build.OutputDirectory = filepath.Join(base, cfg.Build.OutputDirectory)
	}
	return cfg, nil
}

// Parse decodes YAML and applies defaults and environment overrides.
func Parse(data []byte) (*BuildConfig, error) {
	var cfg BuildConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *BuildConfig) {
	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}
	if cfg.Project.AssetsPrefix == "" {
		cfg.Project.AssetsPrefix = "Assets"
	}
	if cfg.Project.Dependencies == "" {
		cfg.Project.Dependencies = DependenciesGUID
	}
	if cfg.Project.CacheSize == 0 {
		cfg.Project.CacheSize = 4096
	}
	if cfg.Build.OutputDirectory == "" {
		cfg.Build.OutputDirectory = "build/units"
	}
	if cfg.Build.Backend == "" {
		cfg.Build.Backend = "archive"
	}
	if cfg.Build.Workers == 0 {
		cfg.Build.Workers = 4
	}
	if cfg.Release.MajorVersion == 0 {
		cfg.Release.MajorVersion = 1
	}
	for i := range cfg.Folders {
		cfg.Folders[i].Path = filepath.ToSlash(filepath.Clean(cfg.Folders[i].Path))
	}
}

func applyEnv(cfg *BuildConfig) {
	if cfg.Publish.S3 == nil {
		return
	}
	if v := os.Getenv(EnvS3AccessKey); v != "" {
		cfg.Publish.S3.AccessKey = v
	}
	if v := os.Getenv(EnvS3SecretKey); v != "" {
		cfg.Publish.S3.SecretKey = v
	}
}
