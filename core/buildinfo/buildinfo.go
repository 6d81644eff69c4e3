package buildinfo

// Set at build time, for example:
//
//	go build -ldflags "-X 'github.com/m3rciful/lnmubot/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/lnmubot/core/buildinfo.Commit=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/m3rciful/lnmubot/core/buildinfo.Date=$(date -u +%FT%TZ)'" ./cmd/lnmubot
var (
	// Version is the release tag of the binary.
	Version = "dev"
	// Commit is the source revision the binary was built from.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders version, commit and date as a single token for logs.
func String() string {
	s := Version + "+" + Commit
	if Date != "" {
		s += "@" + Date
	}
	return s
}
