package config

import (
	"github.com/tauraamui/yuvcapture/internal/config"
	"github.com/tauraamui/yuvcapture/pkg/configdef"
)

func DefaultResolver() configdef.Resolver {
	return config.DefaultResolver()
}
