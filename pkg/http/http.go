package http

import (
	"fmt"
	"time"
)

// Http holds the HTTP listener configuration.
type Http struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	AccessLog       bool     `mapstructure:"accessLog"`
	ReadTimeout     int      `mapstructure:"readTimeout"`
	WriteTimeout    int      `mapstructure:"writeTimeout"`
	IdleTimeout     int      `mapstructure:"idleTimeout"`
	ShutdownTimeout int      `mapstructure:"shutdownTimeout"`
	BodyLimit       int      `mapstructure:"bodyLimit"` // bytes
	CorsOrigins     []string `mapstructure:"corsOrigins"`
}

func (h *Http) SetDefaults() {
	if h.Host == "" {
		h.Host = "0.0.0.0"
	}
	if h.Port == 0 {
		h.Port = 8000
	}
	if h.ReadTimeout == 0 {
		h.ReadTimeout = 30
	}
	if h.WriteTimeout == 0 {
		h.WriteTimeout = 30
	}
	if h.IdleTimeout == 0 {
		h.IdleTimeout = 60
	}
	if h.ShutdownTimeout == 0 {
		h.ShutdownTimeout = 30
	}
	if h.BodyLimit == 0 {
		h.BodyLimit = 1 << 20
	}
	if len(h.CorsOrigins) == 0 {
		h.CorsOrigins = []string{"*"}
	}
}

func (h *Http) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

func (h *Http) Shutdown() time.Duration {
	return time.Duration(h.ShutdownTimeout) * time.Second
}
