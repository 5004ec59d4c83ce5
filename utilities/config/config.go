package config

import (
	"fmt"
	"os"
	"path"
	"strconv"

	goUUID "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
	"github.com/trungams/simple-cloud/utilities/constants"
)

func StateDir() string {
	return DefaultValue("STATE_DIR", "/var/lib/simple-cloud")
}

func DockerAPIVersion() string {
	return DefaultValue("DOCKER_API_VERSION", constants.DefaultVersion)
}

func LogLevel() string {
	return DefaultValue("LOG_LEVEL", "info")
}

func SetLogLevel(value string) {
	constants.ConfigOverride["LOG_LEVEL"] = value
}

func NetworkName() string {
	return DefaultValue("NETWORK_NAME", constants.DefaultNetworkName)
}

func SetNetworkName(value string) {
	constants.ConfigOverride["NETWORK_NAME"] = value
}

func Subnet() string {
	return DefaultValue("SUBNET", "")
}

func SetSubnet(value string) {
	constants.ConfigOverride["SUBNET"] = value
}

func APIListen() string {
	return DefaultValue("API_LISTEN", "127.0.0.1:8080")
}

func SetAPIListen(value string) {
	constants.ConfigOverride["API_LISTEN"] = value
}

func WorkerCount() int {
	ret, err := strconv.Atoi(DefaultValue("WORKER_COUNT", "10"))
	if err != nil || ret <= 0 {
		return 10
	}
	return ret
}

func ProxyConfigPath() string {
	return DefaultValue("PROXY_CONFIG", path.Join(StateDir(), "haproxy.cfg"))
}

func ProxyReloadCommand() string {
	return DefaultValue("PROXY_RELOAD_COMMAND", "")
}

func ProxyAdminSocket() string {
	return DefaultValue("PROXY_ADMIN_SOCKET", "")
}

func ProxyInterval() string {
	return DefaultValue("PROXY_INTERVAL", "2s")
}

func Hostname() (string, error) {
	name := DefaultValue("HOSTNAME", "")
	if name != "" {
		return name, nil
	}
	return os.Hostname()
}

func CloudUUID() (string, error) {
	return GetUUIDFromFile("CLOUD_UUID", cloudUUIDFile(), false)
}

func cloudUUIDFile() string {
	defValue := fmt.Sprintf("%s/.cloud_uuid", StateDir())
	return DefaultValue("CLOUD_UUID_FILE", defValue)
}

func getUUIDFromFile(uuidFilePath string) (string, error) {
	uuid := ""

	fileBuffer, err := os.ReadFile(uuidFilePath)
	if err != nil && !os.IsNotExist(err) {
		return "", errors.Wrap(err, constants.ReadUUIDFromFileError+"failed to read uuid file")
	}
	uuid = string(fileBuffer)
	if uuid == "" {
		newUUID, err := goUUID.NewV4()
		if err != nil {
			return "", errors.Wrap(err, constants.ReadUUIDFromFileError+"failed to generate uuid")
		}
		uuid = newUUID.String()
		file, err := os.Create(uuidFilePath)
		if err != nil {
			return "", errors.Wrap(err, constants.ReadUUIDFromFileError+"failed to create uuid file")
		}
		if _, err := file.WriteString(uuid); err != nil {
			return "", errors.Wrap(err, constants.ReadUUIDFromFileError+"failed to write uuid to file")
		}
	}
	return uuid, nil
}

func GetUUIDFromFile(envName string, uuidFilePath string, forceWrite bool) (string, error) {
	uuid := DefaultValue(envName, "")
	if uuid != "" {
		if forceWrite {
			_, err := os.Open(uuidFilePath)
			if err == nil {
				os.Remove(uuidFilePath)
			} else if !os.IsNotExist(err) {
				return "", errors.Wrap(err, constants.GetUUIDFromFileError+"failed to open uuid file")
			}
			file, err := os.Create(uuidFilePath)
			if err != nil {
				return "", errors.Wrap(err, constants.GetUUIDFromFileError+"failed to create uuid file")
			}
			if _, err := file.WriteString(uuid); err != nil {
				return "", errors.Wrap(err, constants.GetUUIDFromFileError+"failed to write uuid to file")
			}
		}
		return uuid, nil
	}
	return getUUIDFromFile(uuidFilePath)
}

func DefaultValue(name string, df string) string {
	if value, ok := constants.ConfigOverride[name]; ok {
		return value
	}
	if result := os.Getenv(fmt.Sprintf("CLOUD_%s", name)); result != "" {
		return result
	}
	return df
}
