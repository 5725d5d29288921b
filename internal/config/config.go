// Package config handles renderer configuration loading and management.
package config

// Config holds all engine settings.
type Config struct {
	Graphics Graphics `yaml:"graphics"`
	Shadow   Shadow   `yaml:"shadow"`
	Post     Post     `yaml:"post"`
	IBL      IBL      `yaml:"ibl"`
	Probes   Probes   `yaml:"probes"`
	Stream   Stream   `yaml:"stream"`
	Shaders  Shaders  `yaml:"shaders"`
	Logging  Logging  `yaml:"logging"`
}

// Graphics holds display and frame settings.
type Graphics struct {
	Width            int  `yaml:"width"`
	Height           int  `yaml:"height"`
	Fullscreen       bool `yaml:"fullscreen"`
	VSync            bool `yaml:"vsync"`
	MaxDrawsPerFrame int  `yaml:"max_draws_per_frame"`
}

// Shadow holds shadow-map settings.
type Shadow struct {
	Enabled        bool    `yaml:"enabled"`
	Resolution     int     `yaml:"resolution"`
	Bias           float32 `yaml:"bias"`
	NormalBias     float32 `yaml:"normal_bias"`
	Softness       float32 `yaml:"softness"`
	DistanceFactor float32 `yaml:"distance_factor"`
}

// Post holds post-process settings.
type Post struct {
	Enabled        bool    `yaml:"enabled"`
	BloomThreshold float32 `yaml:"bloom_threshold"`
	BloomIntensity float32 `yaml:"bloom_intensity"`
	Exposure       float32 `yaml:"exposure"`
	Gamma          float32 `yaml:"gamma"`
	ToneMap        string  `yaml:"tone_map"` // "aces" or "none"
	Vignette       float32 `yaml:"vignette"`
	FilmGrain      float32 `yaml:"film_grain"`
}

// IBL holds image-based-lighting settings.
type IBL struct {
	Enabled        bool    `yaml:"enabled"`
	Intensity      float32 `yaml:"intensity"`
	Rotation       float32 `yaml:"rotation"`
	EnvSize        int     `yaml:"env_size"`
	IrradianceSize int     `yaml:"irradiance_size"`
	PrefilterSize  int     `yaml:"prefilter_size"`
	PrefilterMips  int     `yaml:"prefilter_mips"`
	BRDFLUTSize    int     `yaml:"brdf_lut_size"`
}

// Probes holds light-probe grid settings.
type Probes struct {
	ResX    int `yaml:"res_x"`
	ResY    int `yaml:"res_y"`
	ResZ    int `yaml:"res_z"`
	Samples int `yaml:"samples"`
	Bounces int `yaml:"bounces"`
}

// Stream holds async texture streaming settings.
type Stream struct {
	Workers         int `yaml:"workers"`
	UploadsPerFrame int `yaml:"uploads_per_frame"`
	MaxTextureSize  int `yaml:"max_texture_size"`
}

// Shaders holds shader hot-reload settings.
type Shaders struct {
	HotReload bool   `yaml:"hot_reload"`
	Dir       string `yaml:"dir"` // override directory watched for changes
}

// Logging holds logging settings.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: Graphics{
			Width:            1280,
			Height:           720,
			Fullscreen:       false,
			VSync:            true,
			MaxDrawsPerFrame: 1024,
		},
		Shadow: Shadow{
			Enabled:        true,
			Resolution:     2048,
			Bias:           0.0005,
			NormalBias:     0.002,
			Softness:       1.0,
			DistanceFactor: 10,
		},
		Post: Post{
			Enabled:        true,
			BloomThreshold: 1.0,
			BloomIntensity: 0.6,
			Exposure:       1.0,
			Gamma:          2.2,
			ToneMap:        "aces",
			Vignette:       0,
			FilmGrain:      0,
		},
		IBL: IBL{
			Enabled:        true,
			Intensity:      1.0,
			Rotation:       0,
			EnvSize:        512,
			IrradianceSize: 32,
			PrefilterSize:  256,
			PrefilterMips:  5,
			BRDFLUTSize:    512,
		},
		Probes: Probes{
			ResX:    4,
			ResY:    2,
			ResZ:    4,
			Samples: 64,
			Bounces: 2,
		},
		Stream: Stream{
			Workers:         2,
			UploadsPerFrame: 2,
			MaxTextureSize:  2048,
		},
		Shaders: Shaders{
			HotReload: false,
			Dir:       "",
		},
		Logging: Logging{
			Level: "info",
			File:  "",
		},
	}
}
