package main

import (
	"fmt"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/ipc"
)

// commandContext carries shared flag state and lazily-loaded configuration
// across CLI commands.
type commandContext struct {
	socketFlag *string
	configFlag *string

	cfg       *config.Config
	cfgPath   string
	cfgExists bool
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{socketFlag: socketFlag, configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.cfgPath = resolved
	c.cfgExists = exists
	return cfg, nil
}

func (c *commandContext) socketPath() (string, error) {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag), nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return cfg.Paths.SocketPath, nil
}

func (c *commandContext) dial() (*ipc.Client, error) {
	socket, err := c.socketPath()
	if err != nil {
		return nil, err
	}
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, fmt.Errorf("connect to shell at %s (is it running?): %w", socket, err)
	}
	return client, nil
}
