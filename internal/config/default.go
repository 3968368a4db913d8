package config

// Default holds the factory default for every configuration key.
var Default = map[string]any{
	KeyBackendURL:     "",
	KeyBackendAnonKey: "",

	KeyPlaybackSkipHeard: true,
	KeyPlaybackVolume:    0.8,

	KeyCatalogLimit: 500,

	KeyLogsWrite: false,
	KeyLogsLevel: "info",
	KeyLogsJSON:  false,
}

// EnvExposed lists keys that may be set purely through the environment,
// without appearing in the config file.
var EnvExposed = []string{
	KeyBackendURL,
	KeyBackendAnonKey,
	KeyLogsLevel,
}
