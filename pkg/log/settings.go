package log

// ConfigKey is the config subtree holding the whole logging configuration.
const ConfigKey = "log"

// LoggerSettings holds the declarative logging configuration: named
// formatters, named handlers, named logger routing rules and the root
// fallback. The structure is loaded once at startup and immutable afterwards.
type LoggerSettings struct {
	Version    int                          `cfg:"version" default:"1"`
	Formatters map[string]FormatterSettings `cfg:"formatters"`
	Handlers   map[string]HandlerSettings   `cfg:"handlers"`
	Loggers    map[string]RouteSettings     `cfg:"loggers"`
	Root       RootSettings                 `cfg:"root"`
}

// HandlerSettings defines the type of a single log handler; the
// type-specific settings are unmarshalled by the handler factory.
type HandlerSettings struct {
	Type string `cfg:"type"`
}

// RouteSettings binds a minimum severity level to an ordered set of handler
// references. Propagate controls whether records are also offered to the
// handlers of ancestor loggers, it defaults to true.
type RouteSettings struct {
	Level     string   `cfg:"level"`
	Handlers  []string `cfg:"handlers"`
	Propagate *bool    `cfg:"propagate"`
}

// RootSettings is the routing rule applied at the top of the logger hierarchy.
type RootSettings struct {
	Level    string   `cfg:"level" default:"info"`
	Handlers []string `cfg:"handlers"`
}
