package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/srg/bgatt/internal/link"
	"github.com/srg/bgatt/pkg/config"
	"github.com/srg/bgatt/pkg/gatt"
)

// session bundles the open serial link and the client built on top of it.
type session struct {
	cfg    *config.Config
	link   *link.Link
	client *gatt.Client
}

func (s *session) Close() error {
	return s.link.Close()
}

// loadConfig resolves the effective configuration: file (if given),
// then flag overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config %q: %w", path, err)
		}
	} else {
		cfg = config.Default()
	}

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}
	if baud, _ := cmd.Flags().GetInt("baud"); baud != 0 {
		cfg.Baud = baud
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// openSession opens the dongle's serial port and wires a client to it.
// Callers own the returned session and must Close it.
func openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, err
	}

	l, err := link.Dial(cfg.Port, cfg.Baud, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", cfg.Port, err)
	}

	return &session{
		cfg:    cfg,
		link:   l,
		client: gatt.NewClient(l, logger),
	}, nil
}
