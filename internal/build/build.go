// Package build provides build information that is linked into the application. Other
// packages within this project can use this information in logs etc..
package build

var (
	// Version is the build version of the application. It is set at link time.
	Version = "dev"

	// Commit is the sha of the git commit the application was built from. It is set at link time.
	Commit = "none"

	// Date is the date the application was built. It is set at link time.
	Date = "unknown"

	// ProjectName is used for the service name and namespace in metrics and traces.
	ProjectName = "feedexplorer"
)
