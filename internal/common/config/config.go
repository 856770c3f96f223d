package config

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Server        ServerConfig            `mapstructure:"server"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Cache         CacheConfig             `mapstructure:"cache"`
	Engines       EnginesConfig           `mapstructure:"engines"`
	Intent        IntentConfig            `mapstructure:"intent"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP surface settings.
type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	MaxUploadMB  int      `mapstructure:"max_upload_mb"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int      `mapstructure:"write_timeout"` // milliseconds
	CORSOrigins  []string `mapstructure:"cors_origins"`
	ExposeIntent bool     `mapstructure:"expose_intent"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	Plaintext      bool   `mapstructure:"plaintext"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

// CacheConfig controls the optional Redis transcript cache.
type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	TTL     int         `mapstructure:"ttl"` // seconds
	Redis   RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// --- Engine Configuration ---

// EnginesConfig names the external engine binaries and their options.
type EnginesConfig struct {
	Timeout   int             `mapstructure:"timeout"` // milliseconds, per engine call
	Whisper   WhisperConfig   `mapstructure:"whisper"`
	Tesseract TesseractConfig `mapstructure:"tesseract"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Image     ImageConfig     `mapstructure:"image"`
}

type WhisperConfig struct {
	Binary   string `mapstructure:"binary"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`
}

type TesseractConfig struct {
	Binary      string `mapstructure:"binary"`
	Language    string `mapstructure:"language"`
	TessdataDir string `mapstructure:"tessdata_dir"`
	PSM         int    `mapstructure:"psm"`
}

type SpeechConfig struct {
	Binary string `mapstructure:"binary"`
}

// ImageConfig holds OCR pre-processing settings.
type ImageConfig struct {
	Threshold int `mapstructure:"threshold"`
}

// --- Intent Tables ---

// IntentConfig overrides the built-in intent lookup tables. Empty lists
// keep the defaults.
type IntentConfig struct {
	Makes    []string       `mapstructure:"makes"`
	Models   []string       `mapstructure:"models"`
	Colors   []string       `mapstructure:"colors"`
	Actions  []IntentAction `mapstructure:"actions"`
	Fallback []string       `mapstructure:"fallback"`
}

type IntentAction struct {
	Intent  string   `mapstructure:"intent"`
	Phrases []string `mapstructure:"phrases"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig holds metric and trace exporter settings.
type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}
