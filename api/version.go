package api

import (
	"fmt"
	"runtime/debug"

	"github.com/samber/lo"
)

// Build information. Version may be overridden with -ldflags "-X".
var (
	Version       = "0.1.0"
	VersionCommit = ""
	VersionDate   = ""
)

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	setting := func(key string) string {
		s, _ := lo.Find(info.Settings, func(s debug.BuildSetting) bool {
			return s.Key == key
		})
		return s.Value
	}
	if VersionCommit == "" {
		VersionCommit = setting("vcs.revision")
	}
	if VersionDate == "" {
		VersionDate = setting("vcs.time")
	}
}

// VersionString describes the build for the version command
func VersionString() string {
	return fmt.Sprintf("getfavicon version %s\n  commit: %s\n  built:  %s",
		Version, lo.Ternary(VersionCommit != "", VersionCommit, "unknown"), lo.Ternary(VersionDate != "", VersionDate, "unknown"))
}
