package main

import (
	"errors"
	"time"

	"github.com/andresjosehr/dollarspy/internal/apiclient"
	"github.com/andresjosehr/dollarspy/internal/common"
	"github.com/andresjosehr/dollarspy/internal/config"
	"github.com/spf13/viper"
)

const apiTimeout = 10 * time.Second

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newAPIClient returns a control plane client for the configured address.
func newAPIClient() (*apiclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return apiclient.New(cfg.API.BaseURL(), apiTimeout), nil
}

// controlPlaneError turns connection failures into an operator hint.
func controlPlaneError(err error) error {
	if errors.Is(err, common.ErrMonitorNotRunning) {
		return common.NewUserError("the monitor is not running, start it with: dollarspy monitor", err)
	}
	return err
}
