package utils

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/trungams/simple-cloud/model"
	"github.com/trungams/simple-cloud/utilities/constants"
)

// DecodeServiceSpec fills a ServiceSpec from an untyped API payload.
// Decoding is weakly typed so numeric fields arriving as strings still land.
func DecodeServiceSpec(data map[string]interface{}) (model.ServiceSpec, error) {
	var spec model.ServiceSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &spec,
	})
	if err != nil {
		return spec, errors.WithStack(err)
	}
	if err := decoder.Decode(data); err != nil {
		return spec, errors.Wrap(err, "failed to decode service spec")
	}
	return spec, nil
}

func GetFieldsIfExist(m map[string]interface{}, fields ...string) (interface{}, bool) {
	var tempMap map[string]interface{}
	tempMap = m
	for i, field := range fields {
		switch tempMap[field].(type) {
		case map[string]interface{}:
			tempMap = tempMap[field].(map[string]interface{})
			break
		case nil:
			return nil, false
		default:
			// if it is the last field and it is not empty
			// it exists othewise return false
			if i == len(fields)-1 {
				return tempMap[field], true
			}
			return nil, false
		}
	}
	return tempMap, true
}

func InterfaceToString(v interface{}) string {
	value, ok := v.(string)
	if ok {
		return value
	}
	return ""
}

func InterfaceToInt(v interface{}) int {
	switch value := v.(type) {
	case int:
		return value
	case float64:
		return int(value)
	}
	return 0
}

// FormatContainerName yields the canonical container name for the nth
// instance of a service on a network, e.g. web_01_my_network.
func FormatContainerName(service string, index int, network string) string {
	return fmt.Sprintf("%s_%02d_%s", service, index, network)
}

// FormatInstanceName is the SERVICE_ID value, the container name without
// the network suffix.
func FormatInstanceName(service string, index int) string {
	return fmt.Sprintf("%s_%02d", service, index)
}

// ParseContainerEnv splits docker's KEY=VALUE env list into a map.
func ParseContainerEnv(env []string) map[string]string {
	ret := make(map[string]string, len(env))
	for _, entry := range env {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		ret[parts[0]] = parts[1]
	}
	return ret
}

// AtomicWriteFile writes through a temp file in the target directory and
// renames it over the destination.
func AtomicWriteFile(destination string, data []byte, perm os.FileMode) error {
	dir := path.Dir(destination)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WithStack(err)
		}
	}
	tempDst, err := os.CreateTemp(dir, constants.TempPrefix)
	if err != nil {
		return errors.WithStack(err)
	}
	name := tempDst.Name()
	if _, err := tempDst.Write(data); err != nil {
		tempDst.Close()
		os.Remove(name)
		return errors.WithStack(err)
	}
	if err := tempDst.Close(); err != nil {
		os.Remove(name)
		return errors.WithStack(err)
	}
	if err := os.Chmod(name, perm); err != nil {
		os.Remove(name)
		return errors.WithStack(err)
	}
	if err := os.Rename(name, destination); err != nil {
		os.Remove(name)
		return errors.WithStack(err)
	}
	return nil
}

// ShortID trims a container ID to docker's usual 12 character form.
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
