package constants

import (
	"regexp"
)

const (
	ServiceNameEnv = "SERVICE_NAME"
	ServiceIDEnv   = "SERVICE_ID"
	ServicePortEnv = "SERVICE_PORT"

	ServiceNameLabel  = "io.simplecloud.service.name"
	InstanceNameLabel = "io.simplecloud.instance.name"

	DefaultVersion     = "1.24"
	DefaultNetworkName = "my_network"
	DefaultMode        = "tcp"
	DefaultBalance     = "roundrobin"

	OptionMode    = "mode"
	OptionBalance = "balance"

	TempPrefix = "cloud-temp-"
)

const (
	LaunchDefaultClientError = "launch default client: "
	LoadConfigError          = "load config: "
	ValidateConfigError      = "validate config: "
	WriteConfigError         = "write config: "
	ReadUUIDFromFileError    = "read uuid from file: "
	GetUUIDFromFileError     = "get uuid from file: "
	EnsureNetworkError       = "ensure network: "
	RemoveNetworkError       = "remove network: "
	ConnectNetworkError      = "connect network: "
	DisconnectNetworkError   = "disconnect network: "
	AddressPoolError         = "address pool: "
	CreateContainerError     = "create container: "
	StartContainerError      = "start container: "
	RemoveContainerError     = "remove container: "
	InspectContainerError    = "inspect container: "
	PullImageError           = "pull image: "
	StartServiceError        = "start service: "
	ScaleServiceError        = "scale service: "
	StopServiceError         = "stop service: "
	RefreshServiceError      = "refresh service: "
	CleanupError             = "cleanup: "
	RegisterError            = "register instance: "
	DeregisterError          = "deregister instance: "
	RenderConfigError        = "render proxy config: "
	ReloadProxyError         = "reload proxy: "
	ProxyStatsError          = "proxy stats: "
	ExportComposeError       = "export compose manifest: "
	HostStatsError           = "collect host stats: "
)

var ConfigOverride = make(map[string]string)
var NameRegexCompiler = regexp.MustCompile("^[a-zA-Z0-9][a-zA-Z0-9_.-]+$")
