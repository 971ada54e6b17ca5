package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"fieldwork/internal/config"
	"fieldwork/internal/logging"
	"fieldwork/internal/store"
	"fieldwork/internal/syncer"
	"fieldwork/internal/verify"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// quietLogger keeps one-shot commands readable: warnings and errors only,
// on stderr, so tables and JSON own stdout.
func quietLogger() *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withStore runs fn against an opened packet store and always releases it.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := quietLogger()
	st := store.Open(cfg, logger)
	defer st.Close()
	return fn(cfg, st, logger)
}

func newCoordinator(cfg *config.Config, st *store.Store, logger *slog.Logger) (*syncer.Coordinator, syncer.Uploader) {
	uploader := syncer.NewUploader(cfg)
	return syncer.NewCoordinator(st, uploader, logger), uploader
}

func newRecorder(cfg *config.Config, logger *slog.Logger) *verify.Recorder {
	location := verify.NewSimulatedLocation(cfg.Verification, nil, nil)
	device := verify.NewStaticDevice(cfg.Device, nil)
	interval := time.Duration(cfg.Verification.SampleInterval) * time.Second
	return verify.NewRecorder(location, device, logger, verify.WithSampleInterval(interval))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
