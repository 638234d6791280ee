// Package config defines crawl run configuration, its validation, and
// the optional YAML site-override file.
package config
