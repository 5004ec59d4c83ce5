package wizard

import (
	"net/netip"
	"strconv"

	"github.com/pkg/errors"

	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/constants"
)

// Field validators. Messages render under the form field, so they stay
// short and name the expected shape.

func ValidateSubnet(value string) error {
	prefix, err := netip.ParsePrefix(value)
	if err != nil {
		return errors.New("must be an IPv4 CIDR, e.g. 172.18.0.0/24")
	}
	if !prefix.Addr().Is4() {
		return errors.New("must be an IPv4 subnet")
	}
	return nil
}

// IPValidator checks an optional address against the subnet entered
// earlier. The subnet is read through a pointer because the form fills it
// in before this field is reached.
func IPValidator(subnet *string) func(string) error {
	return func(value string) error {
		if value == "" {
			return nil
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return errors.New("must be an IPv4 address")
		}
		prefix, err := netip.ParsePrefix(*subnet)
		if err != nil {
			return nil
		}
		if !prefix.Contains(addr) {
			return errors.Errorf("not inside subnet %s", *subnet)
		}
		return nil
	}
}

func NameValidator(existing []model.ServiceSpec) func(string) error {
	return func(value string) error {
		if !constants.NameRegexCompiler.MatchString(value) {
			return errors.New("use letters, digits, ., _ or -")
		}
		for _, spec := range existing {
			if spec.Name == value {
				return errors.Errorf("service %s already defined", value)
			}
		}
		return nil
	}
}

func ValidateImage(value string) error {
	if value == "" {
		return errors.New("image is required")
	}
	return nil
}

func PortValidator(existing []model.ServiceSpec) func(string) error {
	return func(value string) error {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			return errors.New("must be a port between 1 and 65535")
		}
		for _, spec := range existing {
			if spec.Port == port {
				return errors.Errorf("port already used by service %s", spec.Name)
			}
		}
		return nil
	}
}

func ValidateScale(value string) error {
	scale, err := strconv.Atoi(value)
	if err != nil || scale < 1 {
		return errors.New("must be a positive number")
	}
	return nil
}
