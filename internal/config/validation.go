package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"

	ferrors "git.home.luguber.info/inful/astrokit/internal/foundation/errors"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateRoot(); err != nil {
		return err
	}
	if err := cv.validatePython(); err != nil {
		return err
	}
	if err := cv.validatePackages(); err != nil {
		return err
	}
	if err := cv.validateSource("kit.source", cv.config.Kit.Source); err != nil {
		return err
	}
	return cv.validateSource("topcat.source", cv.config.Topcat.Source)
}

func (cv *configurationValidator) validateRoot() error {
	if cv.config.Root == "" || !filepath.IsAbs(cv.config.Root) {
		return invalid("root", fmt.Sprintf("root directory must be an absolute path, got %q", cv.config.Root))
	}
	return nil
}

var versionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

func (cv *configurationValidator) validatePython() error {
	py := cv.config.Python
	if !versionPattern.MatchString(py.Recommended) {
		return invalid("python.recommended_version", fmt.Sprintf("not a dotted version: %q", py.Recommended))
	}
	if !versionPattern.MatchString(py.Required) {
		return invalid("python.required_version", fmt.Sprintf("not a dotted version: %q", py.Required))
	}
	return nil
}

func (cv *configurationValidator) validatePackages() error {
	for group, pkgs := range cv.config.Packages {
		if _, known := DefaultPackages()[group]; !known {
			return invalid("packages."+group, "unknown package group")
		}
		seen := make(map[string]bool, len(pkgs))
		for _, p := range pkgs {
			if p.Name == "" {
				return invalid("packages."+group, "package without a name")
			}
			if seen[p.Name] {
				return invalid("packages."+group, fmt.Sprintf("duplicate package %q", p.Name))
			}
			seen[p.Name] = true
			if p.MinVersion != "" && !versionPattern.MatchString(p.MinVersion) {
				return invalid("packages."+group, fmt.Sprintf("package %q: min_version %q is not a dotted version", p.Name, p.MinVersion))
			}
		}
	}
	return nil
}

func (cv *configurationValidator) validateSource(field string, src Source) error {
	switch src.Kind {
	case SourceHTTP, SourceGit:
	default:
		return invalid(field, fmt.Sprintf("unsupported source kind %q", src.Kind))
	}
	u, err := url.Parse(src.URL)
	if err != nil || u.Scheme == "" {
		return invalid(field, fmt.Sprintf("invalid url %q", src.URL))
	}
	if src.Kind == SourceHTTP && u.Scheme != "http" && u.Scheme != "https" {
		return invalid(field, fmt.Sprintf("http source needs an http(s) url, got %q", src.URL))
	}
	return nil
}

func invalid(field, message string) error {
	return ferrors.ConfigError(message).WithContext("field", field).Build()
}
