package hostInfo

import (
	"context"

	"github.com/docker/docker/api/types"
	"github.com/sirupsen/logrus"
)

// megabyte converts the byte counts the probes report.
const megabyte = 1048576.0

type Collector interface {
	GetData() (map[string]interface{}, error)
	KeyName() string
}

type DockerVersionGetter interface {
	ServerVersion(ctx context.Context) (types.Version, error)
}

func Collectors(client DockerVersionGetter) []Collector {
	return []Collector{
		CPUCollector{},
		MemoryCollector{Unit: megabyte},
		DiskCollector{Unit: megabyte},
		OSCollector{Client: client},
	}
}

func CollectData(collectors []Collector) map[string]interface{} {
	data := map[string]interface{}{}
	for _, collector := range collectors {
		collectedData, err := collector.GetData()
		if err != nil {
			logrus.Warnf("Failed to collect data from collector %v error msg: %v", collector.KeyName(), err.Error())
		}
		data[collector.KeyName()] = collectedData
	}
	return data
}
