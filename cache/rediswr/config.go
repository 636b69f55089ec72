package rediswr

import "time"

// Config defines the configuration options for Redis connections.
type Config struct {
	// Addrs is the list of Redis server addresses in the format "host:port,host2:port2".
	Addrs string `yaml:"addrs" validate:"required"`

	// Username is the username for the Redis server/cluster.
	Username string `yaml:"username"`

	// Password is the password for the Redis server/cluster.
	Password string `yaml:"password" mask:"true"`

	// DB selects the database on a single-node server.
	DB int `yaml:"db" default:"0"`

	// IsClusterMode indicates whether the Redis server is a Redis cluster.
	IsClusterMode bool `yaml:"is_cluster_mode"`

	// KeyPrefix is prepended to every key.
	KeyPrefix string `yaml:"key_prefix"`

	// DialTimeout bounds establishing a new connection.
	DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
}
