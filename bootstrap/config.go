package bootstrap

import (
	"github.com/kbukum/whisperd/config"
)

// Config is the interface constraint for application configuration types.
// Any struct that embeds config.ServiceConfig (value embedding) and provides
// ApplyDefaults/Validate satisfies it.
type Config = config.Config
