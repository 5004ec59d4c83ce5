package hostInfo

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/mem"
)

type MemoryCollector struct {
	Unit float64
}

func (m MemoryCollector) GetData() (map[string]interface{}, error) {
	data := map[string]interface{}{}

	virtual, err := mem.VirtualMemory()
	if err != nil {
		return data, errors.Wrap(err, "failed to get memory info")
	}
	data["memTotal"] = m.convert(virtual.Total)
	data["memAvailable"] = m.convert(virtual.Available)
	data["memFree"] = m.convert(virtual.Free)
	data["buffers"] = m.convert(virtual.Buffers)
	data["cached"] = m.convert(virtual.Cached)

	swap, err := mem.SwapMemory()
	if err != nil {
		return data, errors.Wrap(err, "failed to get swap info")
	}
	data["swapTotal"] = m.convert(swap.Total)
	data["swapFree"] = m.convert(swap.Free)

	return data, nil
}

func (m MemoryCollector) KeyName() string {
	return "memoryInfo"
}

func (m MemoryCollector) convert(value uint64) float64 {
	return math.Floor(float64(value)/m.Unit*1000) / 1000
}
