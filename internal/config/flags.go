package config

import "flag"

var (
	flagConfig     = flag.String("config", "", "Path to config file")
	flagDebug      = flag.Bool("debug", false, "Enable debug logging")
	flagWidth      = flag.Int("width", 0, "Window width")
	flagHeight     = flag.Int("height", 0, "Window height")
	flagFullscreen = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagNoPost     = flag.Bool("no-post", false, "Disable the post-process chain")
	flagNoShadow   = flag.Bool("no-shadow", false, "Disable the shadow pass")
	flagHotReload  = flag.Bool("hot-reload", false, "Enable shader hot reload")
	flagShaderDir  = flag.String("shader-dir", "", "Shader override directory")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagNoPost {
		cfg.Post.Enabled = false
	}
	if *flagNoShadow {
		cfg.Shadow.Enabled = false
	}
	if *flagHotReload {
		cfg.Shaders.HotReload = true
	}
	if *flagShaderDir != "" {
		cfg.Shaders.Dir = *flagShaderDir
		cfg.Shaders.HotReload = true
	}
}
