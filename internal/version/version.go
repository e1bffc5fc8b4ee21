package version

import "runtime/debug"

// AppName is the service name used in logs, traces, profiles and metrics.
const AppName = "yummigo-web"

// Set at link time with -ldflags "-X .../version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate string
)

type Info struct {
	App        string `json:"app"`
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	CommitDate string `json:"commit_date,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	GoVersion  string `json:"go_version"`
	Modified   *bool  `json:"vcs_modified,omitempty"`
}

// Get merges link-time values with the VCS stamp from the build info.
// Link-time values win.
func Get() Info {
	out := Info{App: AppName, Version: Version, Commit: Commit, BuildDate: BuildDate}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if out.Commit == "none" && s.Value != "" {
				out.Commit = s.Value
			}
		case "vcs.time":
			out.CommitDate = s.Value
			if out.BuildDate == "" {
				out.BuildDate = s.Value
			}
		case "vcs.modified":
			if s.Value == "true" || s.Value == "false" {
				m := s.Value == "true"
				out.Modified = &m
			}
		}
	}
	return out
}

// Short is "version (commit)" with the commit cut to 12 characters.
func (i Info) Short() string {
	c := i.Commit
	if len(c) > 12 {
		c = c[:12]
	}
	return i.Version + " (" + c + ")"
}
