package config

import "time"

// SiteConfig holds site-specific configuration for a single host.
// This allows customizing crawl behavior per site, for example sending
// authentication headers to a documentation site behind a login.
type SiteConfig struct {
	// Headers are custom HTTP headers included in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Delay overrides the global per-domain delay for this host.
	// Zero means the global delay is used.
	Delay time.Duration `yaml:"delay,omitempty"`

	// MaxDepth overrides the global depth limit for this host.
	// Zero means the global limit is used.
	MaxDepth int `yaml:"maxDepth,omitempty"`
}

// File represents the structure of the .webcrawl configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hostnames without scheme (e.g., "docs.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains site configuration applied to all hosts unless
	// overridden in the host-specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host, merging the
// host-specific entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[host]; ok {
		if site.Delay != 0 {
			result.Delay = site.Delay
		}
		if site.MaxDepth != 0 {
			result.MaxDepth = site.MaxDepth
		}
		if len(site.Headers) > 0 {
			merged := make(map[string]string, len(result.Headers)+len(site.Headers))
			for k, v := range result.Headers {
				merged[k] = v
			}
			for k, v := range site.Headers {
				merged[k] = v
			}
			result.Headers = merged
		}
	}

	return result
}
