package config

// defaults is the lowest configuration layer.  Keys use koanf's dotted form.
var defaults = map[string]any{
	"http.listen_addr":      ":8080",
	"http.force_https":      false,
	"http.read_timeout":     "10s",
	"http.write_timeout":    "0s",
	"http.idle_timeout":     "60s",
	"http.shutdown_timeout": "15s",

	"backend.base_url": "https://backend-iql1.onrender.com",
	"backend.timeout":  "0s",

	"form.variant": "complaint/v2",
	"form.dir":     "forms",
	"form.watch":   true,

	"session.idle_ttl":       "30m",
	"session.max_entries":    10000,
	"session.sweep_interval": "1m",

	"logging.dir":     "logs",
	"logging.level":   "info",
	"logging.console": true,
}
