package config

import (
	"fmt"
	"strings"
)

// Backends accepted by build.backend.
var knownBackends = map[string]bool{"archive": true, "dryrun": true}

// Validate checks the config for:
//   - Required fields
//   - Folder paths outside the assets prefix, and duplicates
//   - Unit names and variants that would not stay inside the output directory
//   - Unknown backend or dependency mode
func Validate(cfg *BuildConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("config: version is required")
	}
	var errs []string

	switch cfg.Project.Dependencies {
	case DependenciesGUID:
	case DependenciesStatic:
		if cfg.Project.DependencyFile == "" {
			errs = append(errs, "project: dependency_file is required when dependencies is static")
		}
	default:
		errs = append(errs, fmt.Sprintf("project: unknown dependencies mode %q", cfg.Project.Dependencies))
	}

	if !knownBackends[cfg.Build.Backend] {
		errs = append(errs, fmt.Sprintf("build: unknown backend %q", cfg.Build.Backend))
	}
	if cfg.Build.Workers < 0 {
		errs = append(errs, "build: workers must not be negative")
	}

	if len(cfg.Folders) == 0 {
		errs = append(errs, "folders: at least one folder is required")
	}
	paths := make(map[string]int) // path → index
	prefix := cfg.Project.AssetsPrefix + "/"
	for i, f := range cfg.Folders {
		if f.Path == "" || f.Path == "." {
			errs = append(errs, fmt.Sprintf("folders[%d]: path is required", i))
			continue
		}
		if msg := checkRelPath(f.Path); msg != "" {
			errs = append(errs, fmt.Sprintf("folders[%d]: path %q %s", i, f.Path, msg))
			continue
		}
		if !strings.HasPrefix(f.Path+"/", prefix) || f.Path+"/" == prefix {
			errs = append(errs, fmt.Sprintf("folders[%d]: path %q must be inside %s", i, f.Path, prefix))
		}
		if prev, ok := paths[f.Path]; ok {
			errs = append(errs, fmt.Sprintf("duplicate folder %q (folders[%d] and folders[%d])", f.Path, prev, i))
		} else {
			paths[f.Path] = i
		}
		if !f.SingleUnit && (f.UnitName != "" || f.Variant != "") {
			errs = append(errs, fmt.Sprintf("folders[%d]: unit_name and variant apply to single_unit folders only", i))
		}
		if f.UnitName != "" {
			if msg := checkRelPath(f.UnitName); msg != "" {
				errs = append(errs, fmt.Sprintf("folders[%d]: unit_name %q %s", i, f.UnitName, msg))
			}
		}
		if f.Variant != "" && (strings.ContainsAny(f.Variant, `/\`) || f.Variant == "." || f.Variant == "..") {
			errs = append(errs, fmt.Sprintf("folders[%d]: variant %q must be a single name without separators", i, f.Variant))
		}
	}

	if s3 := cfg.Publish.S3; s3 != nil {
		if s3.Endpoint == "" {
			errs = append(errs, "publish.s3: endpoint is required")
		}
		if s3.Bucket == "" {
			errs = append(errs, "publish.s3: bucket is required")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// checkRelPath describes why p is not a clean relative slash path, or
// returns "" when it is.
func checkRelPath(p string) string {
	if strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return "must be relative and use forward slashes"
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "":
			return "must not contain empty segments"
		case ".", "..":
			return "must not contain . or .. segments"
		}
	}
	return ""
}
