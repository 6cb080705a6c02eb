package config

// BuildConfig is the top-level YAML structure.
type BuildConfig struct {
	Version string      `yaml:"version" json:"version"`
	Project ProjectConf `yaml:"project" json:"project"`
	Build   BuildConf   `yaml:"build" json:"build"`
	Folders []Folder    `yaml:"folders" json:"folders"`
	Release ReleaseConf `yaml:"release" json:"release"`
	Publish PublishConf `yaml:"publish" json:"publish"`
}

// ProjectConf locates the asset project and selects how dependencies are read.
type ProjectConf struct {
	Root           string `yaml:"root" json:"root"`
	AssetsPrefix   string `yaml:"assets_prefix" json:"assets_prefix"`
	Dependencies   string `yaml:"dependencies" json:"dependencies"` // "guid" or "static"
	DependencyFile string `yaml:"dependency_file" json:"dependency_file"`
	CacheSize      int    `yaml:"cache_size" json:"cache_size"`
}

// BuildConf holds packaging settings.
type BuildConf struct {
	OutputDirectory string   `yaml:"output_directory" json:"output_directory"`
	Platform        string   `yaml:"platform" json:"platform"`
	Options         []string `yaml:"options" json:"options"`
	Backend         string   `yaml:"backend" json:"backend"`
	Workers         int      `yaml:"workers" json:"workers"`
	Ignore          []string `yaml:"ignore" json:"ignore"` // extra glob patterns
	// LabelsFile persists unit-name assignments between runs; empty keeps them in memory.
	LabelsFile string `yaml:"labels_file" json:"labels_file,omitempty"`
}

// Folder declares a source directory's packaging policy.
type Folder struct {
	Path       string `yaml:"path" json:"path"`
	UnitName   string `yaml:"unit_name" json:"unit_name,omitempty"`
	SingleUnit bool   `yaml:"single_unit" json:"single_unit"`
	Variant    string `yaml:"variant" json:"variant,omitempty"`
}

// ReleaseConf controls version bookkeeping written after a successful build.
type ReleaseConf struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	MajorVersion int  `yaml:"major_version" json:"major_version"`
}

// PublishConf configures uploads of produced units.
type PublishConf struct {
	S3 *S3Conf `yaml:"s3" json:"s3,omitempty"`
}

// S3Conf is an S3-compatible object store target.
type S3Conf struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Region    string `yaml:"region" json:"region"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	Prefix    string `yaml:"prefix" json:"prefix"`
	AccessKey string `yaml:"access_key" json:"-"`
	SecretKey string `yaml:"secret_key" json:"-"`
	UseSSL    bool   `yaml:"use_ssl" json:"use_ssl"`
}

// Dependency modes.
const (
	DependenciesGUID   = "guid"
	DependenciesStatic = "static"
)

// SingleFolders returns the folders packaged one unit per folder.
func (c *BuildConfig) SingleFolders() []Folder {
	var out []Folder
	for _, f := range c.Folders {
		if f.SingleUnit {
			out = append(out, f)
		}
	}
	return out
}

// SharedFolders returns the folders whose files feed the dependency graph.
func (c *BuildConfig) SharedFolders() []Folder {
	var out []Folder
	for _, f := range c.Folders {
		if !f.SingleUnit {
			out = append(out, f)
		}
	}
	return out
}
