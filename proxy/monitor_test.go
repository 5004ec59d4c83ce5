package proxy

import (
	"bufio"
	"net"
	"path/filepath"

	"gopkg.in/check.v1"
)

type MonitorTestSuite struct {
}

var _ = check.Suite(&MonitorTestSuite{})

// serveAdminSocket answers one command per connection, like the real
// admin socket does, then closes the connection.
func serveAdminSocket(c *check.C, responses map[string]string) (string, func()) {
	path := filepath.Join(c.MkDir(), "admin.sock")
	listener, err := net.Listen("unix", path)
	c.Assert(err, check.IsNil)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				scanner := bufio.NewScanner(conn)
				if scanner.Scan() {
					conn.Write([]byte(responses[scanner.Text()]))
				}
			}(conn)
		}
	}()

	return path, func() {
		listener.Close()
	}
}

func (s *MonitorTestSuite) TestStats(c *check.C) {
	path, cleanup := serveAdminSocket(c, map[string]string{
		"show stat": "# pxname,svname,scur,status\n" +
			"web_frontend,FRONTEND,1,OPEN\n" +
			"web_backend,web_01,1,UP\n" +
			"web_backend,BACKEND,1\n" +
			"\n",
	})
	defer cleanup()

	monitor := &Monitor{SocketPath: path}
	stats, err := monitor.Stats()
	c.Assert(err, check.IsNil)
	c.Assert(stats, check.HasLen, 3)
	c.Assert(stats[0]["pxname"], check.Equals, "web_frontend")
	c.Assert(stats[0]["status"], check.Equals, "OPEN")
	c.Assert(stats[1]["svname"], check.Equals, "web_01")

	// short lines keep the columns they have
	c.Assert(stats[2]["scur"], check.Equals, "1")
	_, ok := stats[2]["status"]
	c.Assert(ok, check.Equals, false)
}

func (s *MonitorTestSuite) TestStatsSkipsOverlongLines(c *check.C) {
	path, cleanup := serveAdminSocket(c, map[string]string{
		"show stat": "# pxname,svname\n" +
			"web_frontend,FRONTEND,1,OPEN,extra\n" +
			"web_backend,BACKEND\n",
	})
	defer cleanup()

	monitor := &Monitor{SocketPath: path}
	stats, err := monitor.Stats()
	c.Assert(err, check.IsNil)
	c.Assert(stats, check.HasLen, 1)
	c.Assert(stats[0]["pxname"], check.Equals, "web_backend")
}

func (s *MonitorTestSuite) TestStatsNoHeader(c *check.C) {
	path, cleanup := serveAdminSocket(c, map[string]string{
		"show stat": "garbage\n",
	})
	defer cleanup()

	monitor := &Monitor{SocketPath: path}
	_, err := monitor.Stats()
	c.Assert(err, check.ErrorMatches, ".*failed to find stats.*")
}

func (s *MonitorTestSuite) TestInfo(c *check.C) {
	path, cleanup := serveAdminSocket(c, map[string]string{
		"show info": "Name: HAProxy\nVersion: 2.4.22\nUptime_sec: 120\n\n",
	})
	defer cleanup()

	monitor := &Monitor{SocketPath: path}
	info, err := monitor.Info()
	c.Assert(err, check.IsNil)
	c.Assert(info["Name"], check.Equals, "HAProxy")
	c.Assert(info["Version"], check.Equals, "2.4.22")
	c.Assert(info["Uptime_sec"], check.Equals, "120")
}

func (s *MonitorTestSuite) TestDialError(c *check.C) {
	monitor := &Monitor{SocketPath: filepath.Join(c.MkDir(), "missing.sock")}
	_, err := monitor.Stats()
	c.Assert(err, check.ErrorMatches, ".*failed to dial admin socket.*")
}
