package model

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/formats"
)

// TextureType is the role of a texture inferred from its name.
type TextureType int

const (
	TextureUnknown TextureType = iota
	TextureBaseColor
	TextureNormal
	TextureRoughness
	TextureMetalness
	TextureAO
	TextureEmission
	TextureMask
)

func (t TextureType) String() string {
	switch t {
	case TextureBaseColor:
		return "BaseColor"
	case TextureNormal:
		return "Normal"
	case TextureRoughness:
		return "Roughness"
	case TextureMetalness:
		return "Metalness"
	case TextureAO:
		return "AO"
	case TextureEmission:
		return "Emission"
	case TextureMask:
		return "Mask"
	default:
		return "Unknown"
	}
}

// textureRules maps lower-case name fragments to texture types. Earlier
// rules win.
var textureRules = []struct {
	fragment string
	typ      TextureType
}{
	{"normal", TextureNormal},
	{"rough", TextureRoughness},
	{"metal", TextureMetalness},
	{"occlusion", TextureAO},
	{"aomap", TextureAO},
	{"emis", TextureEmission},
	{"emit", TextureEmission},
	{"mask", TextureMask},
	{"basecolor", TextureBaseColor},
	{"albedo", TextureBaseColor},
	{"diffuse", TextureBaseColor},
	{"color", TextureBaseColor},
	{"col", TextureBaseColor},
}

// InferTextureType guesses a texture's role from its name.
func InferTextureType(name string) TextureType {
	lower := strings.ToLower(name)
	for _, r := range textureRules {
		if strings.Contains(lower, r.fragment) {
			return r.typ
		}
	}
	if lower == "ao" || strings.HasPrefix(lower, "ao_") || strings.HasSuffix(lower, "_ao") {
		return TextureAO
	}
	return TextureUnknown
}

// WrapMode is a texture addressing mode.
type WrapMode uint32

const (
	WrapRepeat WrapMode = 0
	WrapClamp  WrapMode = 1
	WrapMirror WrapMode = 2
)

func (w WrapMode) String() string {
	switch w {
	case WrapClamp:
		return "Clamp"
	case WrapMirror:
		return "Mirror"
	default:
		return "Repeat"
	}
}

// SamplerState holds the wrap modes of one texture slot.
type SamplerState struct {
	WrapU WrapMode
	WrapV WrapMode
}

// Texture is a texture reference of a material.
type Texture struct {
	Name    string
	File    string
	Slot    int
	Type    TextureType
	Sampler SamplerState
}

// ShaderBlock is a named set of shader parameters.
type ShaderBlock struct {
	Name   string
	Params map[string]string
}

// MaterialAsset is a decoded material.
type MaterialAsset struct {
	Name      string
	ShaderID  string // first shader block name, empty when none
	Shaders   []ShaderBlock
	Textures  []Texture
	Floats    map[string]float32
	Colors    map[string][4]float32
	AlphaType string // empty when opaque
	Samplers  []SamplerState
}

// Texture returns the first texture of the given type.
func (m *MaterialAsset) Texture(t TextureType) (Texture, bool) {
	for _, tex := range m.Textures {
		if tex.Type == t {
			return tex, true
		}
	}
	return Texture{}, false
}

// Transparent reports whether the material declares an alpha mode.
func (m *MaterialAsset) Transparent() bool {
	return m.AlphaType != ""
}

// DecodeMaterial converts a parsed material record. Unknown wrap modes fall
// back to repeat with a warning.
func DecodeMaterial(src *formats.Material, log *zap.Logger) *MaterialAsset {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("material", src.Name))

	mat := &MaterialAsset{
		Name:      src.Name,
		AlphaType: src.AlphaType,
		Floats:    make(map[string]float32, len(src.Floats)),
		Colors:    make(map[string][4]float32, len(src.Colors)),
	}

	for _, sh := range src.Shaders {
		block := ShaderBlock{Name: sh.Name, Params: make(map[string]string, len(sh.Params))}
		for _, p := range sh.Params {
			block.Params[p.Key] = p.Value
		}
		mat.Shaders = append(mat.Shaders, block)
	}
	if len(mat.Shaders) > 0 {
		mat.ShaderID = mat.Shaders[0].Name
	}

	for _, p := range src.Floats {
		mat.Floats[p.Name] = p.Value
	}
	for _, p := range src.Colors {
		mat.Colors[p.Name] = p.Value
	}

	mat.Samplers = make([]SamplerState, len(src.Samplers))
	for i, s := range src.Samplers {
		mat.Samplers[i] = SamplerState{
			WrapU: wrapMode(s.WrapU, log),
			WrapV: wrapMode(s.WrapV, log),
		}
	}

	for _, ref := range src.Textures {
		tex := Texture{
			Name: ref.Name,
			File: ref.File,
			Slot: int(ref.Slot),
			Type: InferTextureType(ref.Name),
		}
		if tex.Slot < len(mat.Samplers) {
			tex.Sampler = mat.Samplers[tex.Slot]
		}
		if tex.Type == TextureUnknown {
			log.Debug("texture type not inferred", zap.String("texture", ref.Name))
		}
		mat.Textures = append(mat.Textures, tex)
	}
	return mat
}

func wrapMode(v uint32, log *zap.Logger) WrapMode {
	switch w := WrapMode(v); w {
	case WrapRepeat, WrapClamp, WrapMirror:
		return w
	default:
		log.Warn("unknown wrap mode, using repeat", zap.Uint32("wrap", v))
		return WrapRepeat
	}
}
