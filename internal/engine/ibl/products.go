package ibl

import (
	"time"

	"go.uber.org/zap"

	"github.com/lumen3d/lumen/internal/engine/registry"
	"github.com/lumen3d/lumen/internal/logger"
)

// Options sizes the pre-integration products.
type Options struct {
	EnvSize        int
	IrradianceSize int
	PrefilterSize  int
	PrefilterMips  int
	BRDFLUTSize    int
}

// DefaultOptions matches the shipped configuration defaults.
func DefaultOptions() Options {
	return Options{
		EnvSize:        512,
		IrradianceSize: 32,
		PrefilterSize:  256,
		PrefilterMips:  5,
		BRDFLUTSize:    512,
	}
}

// Products are the uploaded IBL textures, referenced by slot.
type Products struct {
	EnvSlot        int
	IrradianceSlot int
	PrefilterSlot  int
	BRDFLUTSlot    int
	// MaxMip is the top LOD of the prefiltered chain, written into the
	// per-draw constants for roughness-based selection.
	MaxMip float32
	// Environment stays resident for the probe baker.
	Environment *Cube
}

// Build runs the full pre-integration from an equirectangular HDR
// environment and uploads every product. CPU-heavy; call off the hot
// path, typically at load time.
func Build(reg *registry.Registry, env *Equirect, opts Options) (*Products, error) {
	start := time.Now()

	cube, err := EquirectToCube(env, opts.EnvSize)
	if err != nil {
		return nil, err
	}
	_, envSlot, err := reg.UploadCubemap(cube.ToCubemapData())
	if err != nil {
		return nil, err
	}

	irr := IrradianceMap(cube, opts.IrradianceSize)
	_, irrSlot, err := reg.UploadCubemap(ToCubemapDataLevels([]*Cube{irr}))
	if err != nil {
		return nil, err
	}

	pre := PrefilterSpecular(cube, opts.PrefilterSize, opts.PrefilterMips)
	_, preSlot, err := reg.UploadCubemap(ToCubemapDataLevels(pre))
	if err != nil {
		return nil, err
	}

	lut := BRDFLUT(opts.BRDFLUTSize)
	_, lutSlot, err := reg.UploadTexture(&registry.TextureData{
		Width:  opts.BRDFLUTSize,
		Height: opts.BRDFLUTSize,
		Pixels: registry.FloatBytes(lut),
	}, registry.FormatRG32F)
	if err != nil {
		return nil, err
	}

	logger.Info("IBL pre-integration complete",
		zap.Int("env_size", opts.EnvSize),
		zap.Int("irradiance_size", opts.IrradianceSize),
		zap.Int("prefilter_mips", opts.PrefilterMips),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Products{
		EnvSlot:        envSlot,
		IrradianceSlot: irrSlot,
		PrefilterSlot:  preSlot,
		BRDFLUTSlot:    lutSlot,
		MaxMip:         float32(opts.PrefilterMips - 1),
		Environment:    cube,
	}, nil
}
