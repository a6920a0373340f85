package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateDrafts(); err != nil {
		return err
	}
	if err := c.validatePlan(); err != nil {
		return err
	}
	if err := c.validateGeocode(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if strings.TrimSpace(c.Backend.BaseURL) == "" {
		return errors.New("backend.base_url must be set")
	}
	if c.Backend.RequestTimeout < 0 {
		return errors.New("backend.request_timeout must not be negative")
	}
	if !strings.HasPrefix(c.Uploads.TicketPath, "/") {
		return fmt.Errorf("uploads.ticket_path must be an absolute path, got %q", c.Uploads.TicketPath)
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		return fmt.Errorf("output dimensions must be positive, got %dx%d", c.Output.Width, c.Output.Height)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100, got %d", c.Output.Quality)
	}
	return nil
}

func (c *Config) validateDrafts() error {
	if c.Drafts.TTLHours <= 0 {
		return errors.New("drafts.ttl_hours must be positive")
	}
	if c.Drafts.AutosaveInterval < 0 {
		return errors.New("drafts.autosave_interval must not be negative")
	}
	return nil
}

func (c *Config) validatePlan() error {
	switch c.Plan {
	case "free", "standard", "premium":
		return nil
	default:
		return fmt.Errorf("plan must be one of free, standard, premium; got %q", c.Plan)
	}
}

func (c *Config) validateGeocode() error {
	if !c.Geocode.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Geocode.BaseURL) == "" {
		return errors.New("geocode.base_url must be set when geocode.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
