package docker

import (
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/trungams/simple-cloud/utilities/constants"
)

func launchDefaultClient(version string) (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithVersion(version))
	if err != nil {
		return nil, errors.Wrap(err, constants.LaunchDefaultClientError)
	}
	return cli, nil
}
