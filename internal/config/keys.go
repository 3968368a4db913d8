package config

// Viper key names. Dots map to underscores for environment variables,
// e.g. SIPURIM_BACKEND_URL.
const (
	KeyBackendURL     = "backend.url"
	KeyBackendAnonKey = "backend.anon_key"

	KeyPlaybackSkipHeard = "playback.skip_heard"
	KeyPlaybackVolume    = "playback.volume"

	KeyCatalogLimit = "catalog.limit"

	KeyLogsWrite = "logs.write"
	KeyLogsLevel = "logs.level"
	KeyLogsJSON  = "logs.json"
)
