package version

// Version contains the application version information.
// Set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/specpreview/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)
