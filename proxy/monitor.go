package proxy

import (
	"bufio"
	"net"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/trungams/simple-cloud/utilities/constants"
)

type Stat map[string]string

// Monitor talks to the proxy's admin socket.
type Monitor struct {
	SocketPath string
}

// Stats parses "show stat" CSV output into one map per proxy object.
func (h *Monitor) Stats() ([]Stat, error) {
	stats := []Stat{}

	lines, err := h.runCommand("show stat")
	if err != nil {
		return nil, err
	}

	if len(lines) == 0 || !strings.HasPrefix(lines[0], "# ") {
		return nil, errors.New(constants.ProxyStatsError + "failed to find stats")
	}

	keys := strings.Split(strings.TrimPrefix(lines[0], "# "), ",")

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}

		values := strings.Split(line, ",")
		if len(values) > len(keys) {
			logrus.Errorf("Invalid stat line: %s", line)
			continue
		}

		stat := Stat{}

		for i := 0; i < len(values); i++ {
			stat[keys[i]] = values[i]
		}

		stats = append(stats, stat)
	}

	return stats, err
}

// Info parses "show info" key: value lines.
func (h *Monitor) Info() (map[string]string, error) {
	info := map[string]string{}

	lines, err := h.runCommand("show info")
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		info[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	return info, nil
}

func (h *Monitor) runCommand(cmd string) ([]string, error) {
	conn, err := net.Dial("unix", h.SocketPath)
	if err != nil {
		return nil, errors.Wrap(err, constants.ProxyStatsError+"failed to dial admin socket")
	}
	defer conn.Close()

	_, err = conn.Write([]byte(cmd + "\n"))
	if err != nil {
		return nil, errors.Wrap(err, constants.ProxyStatsError+"failed to send command")
	}

	result := []string{}
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}

	return result, scanner.Err()
}
