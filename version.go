package mocache

// Version information for mocache.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/mocache.GitCommit=abc1234"
const (
	// Name is the application name.
	Name = "mocache"

	// Description is a short description of the application.
	Description = "Write-through cache for parsed translation catalogs"

	// Version is the semantic version of the application.
	Version = "0.1.0"

	// CacheFormatVersion is mixed into every fingerprint. Bump it to
	// invalidate every cached catalog at once.
	CacheFormatVersion = "1.0.1"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/mocache"

	// License is the software license.
	License = "MIT"
)

// BuildInfo contains build-time information.
// These are typically set via ldflags during build.
var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with optional build info.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}
