package hostInfo

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
)

type CPUCollector struct {
}

func (c CPUCollector) GetData() (map[string]interface{}, error) {
	data := map[string]interface{}{}

	cInfo, err := c.getCPUInfo()
	if err != nil {
		return data, errors.WithStack(err)
	}
	for key, value := range cInfo {
		data[key] = value
	}
	percent, err := c.getCPUPercentage()
	if err != nil {
		return data, errors.WithStack(err)
	}
	for key, value := range percent {
		data[key] = value
	}
	for key, value := range c.getCPULoadAverage() {
		data[key] = value
	}
	return data, nil
}

func (c CPUCollector) KeyName() string {
	return "cpuInfo"
}

func (c CPUCollector) getCPUInfo() (map[string]interface{}, error) {
	data := map[string]interface{}{}

	cpuInfo, err := cpu.Info()
	if err != nil {
		return map[string]interface{}{}, err
	}
	counts, err := cpu.Counts(true)
	if err != nil {
		return map[string]interface{}{}, err
	}
	data["count"] = counts
	if len(cpuInfo) > 0 {
		data["modelName"] = cpuInfo[0].ModelName
		data["mhz"] = cpuInfo[0].Mhz
	}

	return data, nil
}

// getCPUPercentage samples per-core usage over one second.
func (c CPUCollector) getCPUPercentage() (map[string]interface{}, error) {
	data := map[string]interface{}{}
	cpuCoresPercentages := []float64{}

	percents, err := cpu.Percent(time.Second*1, true)
	if err != nil {
		return map[string]interface{}{}, err
	}
	cpuCoresPercentages = append(cpuCoresPercentages, percents...)
	data["cpuCoresPercentages"] = cpuCoresPercentages
	return data, nil
}

func (c CPUCollector) getCPULoadAverage() map[string]interface{} {
	loadData, err := load.Avg()
	if err != nil {
		return map[string]interface{}{}
	}
	loadAvg := []string{}
	loadAvg = append(loadAvg, strconv.FormatFloat(loadData.Load1, 'f', -1, 64))
	loadAvg = append(loadAvg, strconv.FormatFloat(loadData.Load5, 'f', -1, 64))
	loadAvg = append(loadAvg, strconv.FormatFloat(loadData.Load15, 'f', -1, 64))
	return map[string]interface{}{
		"loadAvg": loadAvg,
	}
}
