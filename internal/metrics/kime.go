package metrics

// Bridge holds the metrics recorded by the WebSocket bridge.
type Bridge struct {
	SessionsOpened  *Counter
	SessionsActive  *Gauge
	InstallFailures *Counter
	KeysInjected    *Counter
	KeysConsumed    *Counter
	BadMessages     *Counter
	KeyLatency      *Histogram
	ConfigReloads   *Counter
}

// NewBridge registers the bridge metrics on r.
func NewBridge(r *Registry) *Bridge {
	return &Bridge{
		SessionsOpened:  r.Counter("sessions_opened_total", "Sessions installed on new connections", nil),
		SessionsActive:  r.Gauge("sessions_active", "Connections with a live session", nil),
		InstallFailures: r.Counter("install_failures_total", "Connections refused because the session could not be installed", nil),
		KeysInjected:    r.Counter("keys_injected_total", "Keys injected into sessions", nil),
		KeysConsumed:    r.Counter("keys_consumed_total", "Injected keys consumed by the engine", nil),
		BadMessages:     r.Counter("bad_messages_total", "Client messages that could not be handled", nil),
		KeyLatency:      r.Histogram("key_seconds", "Time to process one injected key", nil, nil),
		ConfigReloads:   r.Counter("config_reloads_total", "Config file reloads applied", nil),
	}
}
