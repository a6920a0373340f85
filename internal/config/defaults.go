package config

const (
	defaultDataDir          = "~/.local/share/cardpress"
	defaultLogDir           = "~/.local/share/cardpress/logs"
	defaultBackendBaseURL   = "http://127.0.0.1:8380"
	defaultBackendTimeout   = 30
	defaultTicketPath       = "/api/v1/uploads/tickets"
	defaultUploadTimeout    = 60
	defaultOutputWidth      = 1800
	defaultOutputHeight     = 1200
	defaultOutputQuality    = 85
	defaultDraftTTLHours    = 24
	defaultAutosaveInterval = 5
	defaultPlan             = "free"
	defaultGeocodeBaseURL   = "https://nominatim.openstreetmap.org"
	defaultNotifyTimeout    = 10
	defaultServerBind       = "127.0.0.1:8380"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Backend: Backend{
			BaseURL:        defaultBackendBaseURL,
			RequestTimeout: defaultBackendTimeout,
		},
		Uploads: Uploads{
			TicketPath:     defaultTicketPath,
			RequestTimeout: defaultUploadTimeout,
		},
		Output: Output{
			Width:   defaultOutputWidth,
			Height:  defaultOutputHeight,
			Quality: defaultOutputQuality,
		},
		Drafts: Drafts{
			TTLHours:         defaultDraftTTLHours,
			AutosaveInterval: defaultAutosaveInterval,
		},
		Plan: defaultPlan,
		Geocode: Geocode{
			Enabled: false,
			BaseURL: defaultGeocodeBaseURL,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Publishes:      true,
			Errors:         true,
		},
		Server: Server{
			Bind: defaultServerBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
