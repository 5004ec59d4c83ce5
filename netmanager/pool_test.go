package netmanager

import (
	"net/netip"
	"testing"

	"gopkg.in/check.v1"
)

// Hook up gocheck into the "go test" runner.
func Test(t *testing.T) {
	check.TestingT(t)
}

type PoolTestSuite struct {
}

var _ = check.Suite(&PoolTestSuite{})

func (s *PoolTestSuite) TestNextIsLowestFirst(c *check.C) {
	pool, err := NewAddressPool(netip.MustParsePrefix("172.18.0.0/29"))
	c.Assert(err, check.IsNil)
	c.Assert(pool.Free(), check.Equals, 6)

	first, err := pool.Next()
	c.Assert(err, check.IsNil)
	c.Assert(first.String(), check.Equals, "172.18.0.1")

	second, err := pool.Next()
	c.Assert(err, check.IsNil)
	c.Assert(second.String(), check.Equals, "172.18.0.2")
}

func (s *PoolTestSuite) TestReleaseReusesLowest(c *check.C) {
	pool, err := NewAddressPool(netip.MustParsePrefix("172.18.0.0/29"))
	c.Assert(err, check.IsNil)

	first, _ := pool.Next()
	second, _ := pool.Next()
	pool.Release(first)

	again, err := pool.Next()
	c.Assert(err, check.IsNil)
	c.Assert(again, check.Equals, first)
	c.Assert(second.String(), check.Equals, "172.18.0.2")
}

func (s *PoolTestSuite) TestReleaseIgnoresForeignAndSpecial(c *check.C) {
	pool, err := NewAddressPool(netip.MustParsePrefix("172.18.0.0/29"))
	c.Assert(err, check.IsNil)
	free := pool.Free()

	pool.Release(netip.MustParseAddr("10.0.0.1"))
	pool.Release(netip.MustParseAddr("172.18.0.0"))
	pool.Release(netip.MustParseAddr("172.18.0.7"))
	c.Assert(pool.Free(), check.Equals, free)

	// double release keeps set semantics
	addr, _ := pool.Next()
	pool.Release(addr)
	pool.Release(addr)
	c.Assert(pool.Free(), check.Equals, free)
}

func (s *PoolTestSuite) TestReserve(c *check.C) {
	pool, err := NewAddressPool(netip.MustParsePrefix("172.18.0.0/29"))
	c.Assert(err, check.IsNil)

	c.Assert(pool.Reserve(netip.MustParseAddr("172.18.0.1")), check.Equals, true)
	c.Assert(pool.Reserve(netip.MustParseAddr("172.18.0.1")), check.Equals, false)

	next, err := pool.Next()
	c.Assert(err, check.IsNil)
	c.Assert(next.String(), check.Equals, "172.18.0.2")
}

func (s *PoolTestSuite) TestExhaustion(c *check.C) {
	pool, err := NewAddressPool(netip.MustParsePrefix("172.18.0.0/30"))
	c.Assert(err, check.IsNil)
	c.Assert(pool.Free(), check.Equals, 2)

	_, err = pool.Next()
	c.Assert(err, check.IsNil)
	_, err = pool.Next()
	c.Assert(err, check.IsNil)
	_, err = pool.Next()
	c.Assert(err, check.ErrorMatches, ".*no free addresses left.*")
}

func (s *PoolTestSuite) TestSubnetLimits(c *check.C) {
	_, err := NewAddressPool(netip.MustParsePrefix("10.0.0.0/8"))
	c.Assert(err, check.ErrorMatches, ".*larger than a /16.*")

	_, err = NewAddressPool(netip.MustParsePrefix("fd00::/64"))
	c.Assert(err, check.ErrorMatches, ".*must be IPv4.*")

	pool, err := NewAddressPool(netip.MustParsePrefix("10.10.0.0/16"))
	c.Assert(err, check.IsNil)
	c.Assert(pool.Free(), check.Equals, 65534)
}
