package version

import "runtime"

// Version is stamped at build time via -ldflags.
var Version = "dev"

type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

func Get(service string) Info {
	return Info{
		Service:   service,
		Version:   Version,
		GoVersion: runtime.Version(),
	}
}
