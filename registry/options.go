package registry

import (
	"github.com/pkg/errors"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/constants"
)

var allowedOptionValues = map[string][]string{
	constants.OptionMode:    {"tcp", "http"},
	constants.OptionBalance: {"roundrobin", "static-rr", "leastconn", "first", "source", "uri", "url_param", "rdp-cookie"},
}

// ValidateOption checks a proxy option key/value pair against the allowed
// sets. Only the mode and balance keys exist.
func ValidateOption(key, value string) error {
	allowed, ok := allowedOptionValues[key]
	if !ok {
		return errors.Errorf("unknown option key %q", key)
	}
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}
	return errors.Errorf("invalid value %q for option %q, allowed: %v", value, key, allowed)
}

// IsOptionKey reports whether key names a known proxy option.
func IsOptionKey(key string) bool {
	_, ok := allowedOptionValues[key]
	return ok
}

// SetOption stores a proxy option for a service. The store is untouched on
// a validation error.
func (s *Store) SetOption(service, key, value string) (uint64, error) {
	if err := ValidateOption(key, value); err != nil {
		return s.Index(), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.options[service] == nil {
		s.options[service] = map[string]string{}
	}
	s.options[service][key] = value
	s.index++

	s.notify(model.RegistryEvent{
		Kind:    model.EventOptionPut,
		Index:   s.index,
		Service: service,
		Key:     key,
		Value:   value,
	})
	return s.index, nil
}

func (s *Store) Option(service, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.options[service][key]
	return value, ok
}

func (s *Store) DeleteOption(service, key string) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.options[service][key]; !ok {
		return s.index, false
	}
	delete(s.options[service], key)
	if len(s.options[service]) == 0 {
		delete(s.options, service)
	}
	s.index++

	s.notify(model.RegistryEvent{
		Kind:    model.EventOptionDelete,
		Index:   s.index,
		Service: service,
		Key:     key,
	})
	return s.index, true
}

// OptionsFor returns the proxy mode and balance algorithm for a service,
// falling back to tcp/roundrobin when unset.
func (s *Store) OptionsFor(service string) (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mode := s.options[service][constants.OptionMode]
	if mode == "" {
		mode = constants.DefaultMode
	}
	balance := s.options[service][constants.OptionBalance]
	if balance == "" {
		balance = constants.DefaultBalance
	}
	return mode, balance
}
