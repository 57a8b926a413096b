package buildinfo

var (
	// Version is stamped via -ldflags at release time.
	Version = "dev"
	// Commit is the git revision the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)
