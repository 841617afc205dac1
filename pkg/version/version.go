// Package version carries build information set through ldflags:
//
//	go build -ldflags "-X github.com/newtron-network/ztpfab/pkg/version.Version=v1.0.0 \
//	  -X github.com/newtron-network/ztpfab/pkg/version.GitCommit=abc1234 \
//	  -X github.com/newtron-network/ztpfab/pkg/version.BuildDate=2026-01-01T00:00:00Z"
package version

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the version line printed by "ztpfab version".
func Info() string {
	return "ztpfab " + Version + " (" + GitCommit + ") built " + BuildDate
}
