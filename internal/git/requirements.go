package git

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/agusespa/szz/internal/utils"
	"golang.org/x/mod/semver"
)

// MinVersion is the oldest git whose blame supports --ignore-revs-file.
const MinVersion = "2.23"

// CheckVersion runs git --version and fails when git is missing or older
// than MinVersion. It returns the installed version.
func CheckVersion(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "git", "--version").Output()
	if err != nil {
		return "", fmt.Errorf("git not available: %w", err)
	}

	version, err := utils.ParseGitVersion(string(out))
	if err != nil {
		return "", err
	}
	if !versionAtLeast(version, MinVersion) {
		return version, fmt.Errorf("git %s is too old, %s or newer is required", version, MinVersion)
	}
	return version, nil
}

func versionAtLeast(version, min string) bool {
	return semver.Compare("v"+version, "v"+min) >= 0
}
