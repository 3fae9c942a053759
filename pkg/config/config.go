package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readability
var (
	LogLevel  string // sets the log level (zap log level values)
	LogFormat string // text vs json
	LogFilter string // zapfilter rules for the text format

	ListenAddr        string // listen addr for the broker server
	StaticDir         string // directory with the static web assets, empty disables serving
	EnableTelemetry   bool   // enable telemetry
	TelemetryEndpoint string // endpoint for telemetry
	ProfilingPort     int    // port for profiling

	BrokerURL       string // websocket URL of the broker (host command)
	Preset          string // preset track id used by the headless host
	LapsToWin       int    // laps needed to win a race
	TickInterval    string // simulation tick interval
	InputStaleAfter string // zero a car's input when older than this, 0 disables
)
