package cmd

import (
	"bytes"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the binary
type VersionInfo struct {
	Version   string `json:"version,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty"`
}

// NewVersionInfo from the build information
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
	}
	if Version != "" {
		ver.Version = Version
		ver.GitState = "clean"
	}
	if GitState != "" {
		ver.GitState = GitState
	}
	return ver
}

func (v VersionInfo) String() string {
	var buf bytes.Buffer
	for _, line := range [][2]string{
		{"Version", v.Version},
		{"Build date", v.BuildDate},
		{"Commit", v.GitCommit},
		{"Working tree", v.GitState},
	} {
		buf.WriteString(line[0])
		buf.WriteString(": ")
		buf.WriteString(line[1])
		buf.WriteString("\n")
	}
	return buf.String()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of lineagesync",
	Run: func(cmd *cobra.Command, args []string) {
		infoLogger.Print(NewVersionInfo().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
