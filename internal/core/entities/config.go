package entities

// Config is the resolved, layered configuration (§6): file, then
// environment, then CLI flags, in increasing priority.
type Config struct {
	Docs       DocsConfig       `mapstructure:"docs"`
	Diagrams   DiagramsConfig   `mapstructure:"diagrams"`
	Server     ServerConfig     `mapstructure:"server"`
	Confluence ConfluenceConfig `mapstructure:"confluence"`
	Metadata   MetadataConfig   `mapstructure:"metadata"`
}

type DocsConfig struct {
	SourceDir    string `mapstructure:"source_dir"`
	ProjectDir   string `mapstructure:"project_dir"`
	CacheEnabled bool   `mapstructure:"cache_enabled"`
}

type DiagramsConfig struct {
	KrokiURL    string   `mapstructure:"kroki_url"`
	IncludeDirs []string `mapstructure:"include_dirs"`
	ConfigFile  string   `mapstructure:"config_file"`
	DPI         int      `mapstructure:"dpi"`
}

type ServerConfig struct {
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	LiveReloadEnabled bool  `mapstructure:"live_reload_enabled"`
}

// ConfluenceConfig configures the OAuth 1.0 RSA-SHA1 publisher.
// AccessTokenSecret is wire-compatible but unused: RSA-SHA1 signs with the
// consumer's private key, not a shared token secret (§9 open question 4).
type ConfluenceConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	ConsumerKey        string `mapstructure:"consumer_key"`
	AccessToken        string `mapstructure:"access_token"`
	AccessTokenSecret  string `mapstructure:"access_secret"`
	PrivateKeyPath     string `mapstructure:"private_key_path"`
	CommentMatchThreshold float64 `mapstructure:"comment_match_threshold"`
}

type MetadataConfig struct {
	SidecarName string `mapstructure:"sidecar_name"`
}

// DefaultConfig returns the built-in defaults applied before any file, env,
// or flag layer is merged in.
func DefaultConfig() Config {
	return Config{
		Docs: DocsConfig{
			SourceDir:    "./docs",
			ProjectDir:   "./.docstage",
			CacheEnabled: true,
		},
		Diagrams: DiagramsConfig{
			DPI: DefaultDPI,
		},
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8080,
			LiveReloadEnabled: true,
		},
		Confluence: ConfluenceConfig{
			CommentMatchThreshold: 0.6,
		},
		Metadata: MetadataConfig{
			SidecarName: "_meta.yaml",
		},
	}
}
