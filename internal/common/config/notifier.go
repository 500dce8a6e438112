package config

type (
	// NotifierConfig represents the configuration for the realtime notifier
	NotifierConfig struct {
		Role  string      `yaml:"role"` // receiver, sender, or both
		Type  string      `yaml:"type"` // redis, memory, or composite
		Redis RedisConfig `yaml:"redis"`
	}

	// RedisConfig represents the configuration for the Redis-based notifier
	RedisConfig struct {
		ClusterType string `yaml:"cluster_type"` // single, cluster, sentinel
		Addr        string `yaml:"addr"`
		MasterName  string `yaml:"master_name"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		DB          int    `yaml:"db"`
		Prefix      string `yaml:"prefix"` // channel name prefix
	}
)

// NotifierRole represents the role of a notifier
type NotifierRole string

const (
	// RoleReceiver represents a notifier that can only receive updates
	RoleReceiver NotifierRole = "receiver"
	// RoleSender represents a notifier that can only send updates
	RoleSender NotifierRole = "sender"
	// RoleBoth represents a notifier that can both send and receive updates
	RoleBoth NotifierRole = "both"
)
