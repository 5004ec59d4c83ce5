package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/check.v1"

	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/constants"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) {
	check.TestingT(t)
}

type ConfigTestSuite struct {
}

var _ = check.Suite(&ConfigTestSuite{})

func (s *ConfigTestSuite) SetUpTest(c *check.C) {
	for key := range constants.ConfigOverride {
		delete(constants.ConfigOverride, key)
	}
}

func (s *ConfigTestSuite) TestDefaultValue(c *check.C) {
	c.Assert(DefaultValue("NETWORK_NAME", "fallback"), check.Equals, "fallback")

	os.Setenv("CLOUD_NETWORK_NAME", "from_env")
	defer os.Unsetenv("CLOUD_NETWORK_NAME")
	c.Assert(DefaultValue("NETWORK_NAME", "fallback"), check.Equals, "from_env")

	constants.ConfigOverride["NETWORK_NAME"] = "from_override"
	c.Assert(DefaultValue("NETWORK_NAME", "fallback"), check.Equals, "from_override")
}

func (s *ConfigTestSuite) TestLoadCloudConfig(c *check.C) {
	path := filepath.Join(c.MkDir(), "cloud.json")
	content := `{
  "Subnet": "172.18.0.0/24",
  "ProxyIp": "172.18.0.2",
  "Services": [
    {"name": "web", "image": "nginx:alpine", "port": 8080, "scale": 2}
  ]
}`
	err := os.WriteFile(path, []byte(content), 0644)
	c.Assert(err, check.IsNil)

	cfg, err := LoadCloudConfig(path)
	c.Assert(err, check.IsNil)
	c.Assert(cfg.Subnet, check.Equals, "172.18.0.0/24")
	c.Assert(cfg.ProxyIP, check.Equals, "172.18.0.2")
	c.Assert(cfg.NetworkName, check.Equals, constants.DefaultNetworkName)
	c.Assert(cfg.WorkerCount, check.Equals, 10)
	c.Assert(cfg.Services, check.HasLen, 1)
	c.Assert(cfg.Services[0].Scale, check.Equals, 2)
}

func (s *ConfigTestSuite) TestLoadCloudConfigRequiresSubnet(c *check.C) {
	path := filepath.Join(c.MkDir(), "cloud.json")
	err := os.WriteFile(path, []byte(`{"NetworkName": "nosubnet"}`), 0644)
	c.Assert(err, check.IsNil)

	_, err = LoadCloudConfig(path)
	c.Assert(err, check.NotNil)
	c.Assert(err, check.ErrorMatches, ".*subnet is required.*")
}

func (s *ConfigTestSuite) TestValidateRejectsOutsideIP(c *check.C) {
	cfg := model.CloudConfig{
		Subnet:  "172.18.0.0/24",
		ProxyIP: "10.0.0.2",
	}
	ApplyDefaults(&cfg)
	err := Validate(cfg)
	c.Assert(err, check.ErrorMatches, ".*not inside subnet.*")

	off := false
	cfg.ValidateIPs = &off
	c.Assert(Validate(cfg), check.IsNil)
}

func (s *ConfigTestSuite) TestValidateRejectsPortReuse(c *check.C) {
	cfg := model.CloudConfig{
		Subnet: "172.18.0.0/24",
		Services: []model.ServiceSpec{
			{Name: "web", Image: "nginx", Port: 8080, Scale: 1},
			{Name: "api", Image: "httpd", Port: 8080, Scale: 1},
		},
	}
	err := Validate(cfg)
	c.Assert(err, check.ErrorMatches, ".*reuses port 8080.*")
}

func (s *ConfigTestSuite) TestFromFlags(c *check.C) {
	cfg, err := FromFlags("172.18.0.0/24", "testnet", "172.18.0.2", "172.18.0.1", true)
	c.Assert(err, check.IsNil)
	c.Assert(cfg.NetworkName, check.Equals, "testnet")
	c.Assert(cfg.ValidationEnabled(), check.Equals, true)

	_, err = FromFlags("not-a-subnet", "testnet", "", "", true)
	c.Assert(err, check.NotNil)
}

func (s *ConfigTestSuite) TestProxyIntervalDuration(c *check.C) {
	cfg := model.CloudConfig{Proxy: model.ProxyConfig{Interval: "500ms"}}
	c.Assert(ProxyIntervalDuration(cfg).Milliseconds(), check.Equals, int64(500))

	cfg.Proxy.Interval = "garbage"
	c.Assert(ProxyIntervalDuration(cfg).Seconds(), check.Equals, 2.0)
}
