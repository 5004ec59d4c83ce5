package docker

import (
	"github.com/docker/docker/client"
)

// GetClient panics when the daemon is unreachable; callers that can
// surface the error use NewClient instead.
func GetClient(version string) *client.Client {
	defCli, err := launchDefaultClient(version)
	if err != nil {
		panic(err)
	}
	return defCli
}

func NewClient(version string) (*client.Client, error) {
	return launchDefaultClient(version)
}
