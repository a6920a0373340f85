package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"cardpress/internal/config"
	"cardpress/internal/draft"
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// openDrafts opens the draft store behind an exclusive data-directory lock so
// two cardpress processes cannot race snapshot writes. The returned release
// function unlocks and closes the store.
func (c *commandContext) openDrafts() (*draft.Store, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "cardpress.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, nil, fmt.Errorf("acquire data lock: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("another cardpress instance is using %s", cfg.Paths.DataDir)
	}

	store, err := draft.Open(cfg)
	if err != nil {
		_ = lock.Unlock()
		return nil, nil, fmt.Errorf("open draft store: %w", err)
	}

	release := func() {
		_ = store.Close()
		_ = lock.Unlock()
	}
	return store, release, nil
}
