package cloud

import (
	"bufio"
	"context"

	"github.com/docker/docker/api/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/trungams/simple-cloud/utilities/constants"
	"github.com/trungams/simple-cloud/utilities/utils"
)

// pullImage pulls an image and drains the progress stream, failing when
// the daemon reports an error line.
func pullImage(ctx context.Context, client ContainerClient, image string) error {
	logrus.Infof("Pulling image %s", image)

	reader, err := client.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return errors.Wrap(err, constants.PullImageError+"failed to pull image")
	}
	defer reader.Close()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		status := utils.FromString(scanner.Text())
		if utils.HasKey(status, "error") {
			return errors.Errorf(constants.PullImageError+"image [%s] failed to pull: %v", image, status["error"])
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, constants.PullImageError+"failed to read pull status")
	}

	logrus.Infof("Docker image [%v] has been pulled successfully", image)
	return nil
}
