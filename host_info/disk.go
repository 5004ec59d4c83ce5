package hostInfo

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/sirupsen/logrus"
)

type DiskCollector struct {
	Unit float64
}

func (d DiskCollector) GetData() (map[string]interface{}, error) {
	data := map[string]interface{}{
		"fileSystems": map[string]interface{}{},
		"mountPoints": map[string]interface{}{},
	}

	partitions, err := disk.Partitions(false)
	if err != nil {
		return data, errors.Wrap(err, "failed to get partition info")
	}

	for _, partition := range partitions {
		usage, err := disk.Usage(partition.Mountpoint)
		if err != nil {
			logrus.Debugf("Failed to get usage for %s: %v", partition.Mountpoint, err)
			continue
		}
		data["fileSystems"].(map[string]interface{})[partition.Device] = map[string]interface{}{
			"capacity": d.convert(usage.Total),
			"type":     usage.Fstype,
		}
		data["mountPoints"].(map[string]interface{})[partition.Mountpoint] = map[string]interface{}{
			"total":       d.convert(usage.Total),
			"used":        d.convert(usage.Used),
			"free":        d.convert(usage.Free),
			"percentUsed": math.Floor(usage.UsedPercent*100) / 100,
		}
	}

	return data, nil
}

func (d DiskCollector) KeyName() string {
	return "diskInfo"
}

func (d DiskCollector) convert(value uint64) float64 {
	return math.Floor(float64(value)/d.Unit*1000) / 1000
}
