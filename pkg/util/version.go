package util

import (
	"fmt"
)

// set by -ldflags at build time
var (
	GitCommit = ""
	BuildTime = ""
	GoVersion = ""
	Version   = ""
)

// PrintVersion print the build info, returns false if no build info
func PrintVersion() bool {
	if Version == "" && GitCommit == "" {
		return false
	}

	fmt.Println("Version  : ", Version)
	fmt.Println("GitCommit: ", GitCommit)
	fmt.Println("BuildTime: ", BuildTime)
	fmt.Println("GoVersion: ", GoVersion)
	return true
}
