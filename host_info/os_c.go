package hostInfo

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"
)

type OSCollector struct {
	Client DockerVersionGetter
}

func (o OSCollector) GetData() (map[string]interface{}, error) {
	data := map[string]interface{}{}
	osData, err := o.getOS()
	if err != nil {
		return data, errors.Wrap(err, "failed to get OS data")
	}

	for key, value := range o.getDockerVersion() {
		data[key] = value
	}
	for key, value := range osData {
		data[key] = value
	}
	return data, nil
}

func (o OSCollector) KeyName() string {
	return "osInfo"
}

func (o OSCollector) getDockerVersion() map[string]string {
	data := map[string]string{}
	version := "unknown"
	if o.Client != nil {
		versionData, err := o.Client.ServerVersion(context.Background())
		if err == nil && versionData.Version != "" {
			version = fmt.Sprintf("Docker version %v, build %v", versionData.Version, versionData.GitCommit)
		}
	}
	data["dockerVersion"] = version

	return data
}

func (o OSCollector) getOS() (map[string]interface{}, error) {
	info, err := host.Info()
	if err != nil {
		return map[string]interface{}{}, errors.Wrap(err, "failed to get host info")
	}

	data := map[string]interface{}{}
	data["operatingSystem"] = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	data["kernelVersion"] = info.KernelVersion
	data["uptime"] = info.Uptime

	return data, nil
}
