package formats

import "fmt"

// ShaderParam is one key/value pair of a shader block.
type ShaderParam struct {
	Key   string
	Value string
}

// Shader is a named block of shader parameters.
type Shader struct {
	Name   string
	Params []ShaderParam
}

// TextureRef binds a texture file to a material slot.
type TextureRef struct {
	Name string
	File string
	Slot uint32
}

// FloatParam is a named scalar material parameter.
type FloatParam struct {
	Name  string
	Value float32
}

// ColorParam is a named RGBA material parameter.
type ColorParam struct {
	Name  string
	Value [4]float32
}

// Sampler holds the wrap modes for one texture slot.
type Sampler struct {
	WrapU uint32
	WrapV uint32
}

// Material is one material record.
type Material struct {
	Name      string
	Shaders   []Shader
	Textures  []TextureRef
	Floats    []FloatParam
	Colors    []ColorParam
	AlphaType string // empty when opaque
	Samplers  []Sampler
}

// MaterialFile is a parsed material file.
type MaterialFile struct {
	Version   Version
	Materials []Material
	Skipped   []RecordError // materials that failed to parse
}

// ParseMaterials parses a material file. A malformed material record is
// skipped and reported in Skipped.
func ParseMaterials(data []byte) (*MaterialFile, error) {
	r := newReader(data)
	version, err := r.header(MagicMaterial)
	if err != nil {
		return nil, err
	}

	f := &MaterialFile{Version: version}
	n := r.count("materials", 4)
	for i := 0; i < n; i++ {
		var mat Material
		err := r.record(func(sub *reader) error {
			mat = parseMaterial(sub)
			return nil
		})
		if r.err != nil {
			return nil, fmt.Errorf("material %d: %w", i, r.err)
		}
		if err != nil {
			f.Skipped = append(f.Skipped, RecordError{Index: i, Err: err})
			continue
		}
		f.Materials = append(f.Materials, mat)
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

func parseMaterial(r *reader) Material {
	mat := Material{Name: r.str()}

	mat.Shaders = make([]Shader, r.count("shaders", 8))
	for i := range mat.Shaders {
		sh := &mat.Shaders[i]
		sh.Name = r.str()
		sh.Params = make([]ShaderParam, r.count("shader params", 8))
		for p := range sh.Params {
			sh.Params[p] = ShaderParam{Key: r.str(), Value: r.str()}
		}
	}

	mat.Textures = make([]TextureRef, r.count("textures", 12))
	for i := range mat.Textures {
		mat.Textures[i] = TextureRef{Name: r.str(), File: r.str(), Slot: r.u32()}
	}

	mat.Floats = make([]FloatParam, r.count("floats", 8))
	for i := range mat.Floats {
		mat.Floats[i] = FloatParam{Name: r.str(), Value: r.f32()}
	}

	mat.Colors = make([]ColorParam, r.count("colors", 20))
	for i := range mat.Colors {
		mat.Colors[i] = ColorParam{Name: r.str(), Value: r.vec4()}
	}

	mat.AlphaType = r.str()

	mat.Samplers = make([]Sampler, r.count("samplers", 8))
	for i := range mat.Samplers {
		mat.Samplers[i] = Sampler{WrapU: r.u32(), WrapV: r.u32()}
	}
	return mat
}

// MarshalBinary encodes the material file.
func (f *MaterialFile) MarshalBinary() ([]byte, error) {
	var w writer
	w.header(MagicMaterial, versionOr(f.Version))
	w.u32(uint32(len(f.Materials)))
	for i := range f.Materials {
		mat := &f.Materials[i]
		w.record(func(sub *writer) {
			sub.str(mat.Name)
			sub.u32(uint32(len(mat.Shaders)))
			for _, sh := range mat.Shaders {
				sub.str(sh.Name)
				sub.u32(uint32(len(sh.Params)))
				for _, p := range sh.Params {
					sub.str(p.Key)
					sub.str(p.Value)
				}
			}
			sub.u32(uint32(len(mat.Textures)))
			for _, tex := range mat.Textures {
				sub.str(tex.Name)
				sub.str(tex.File)
				sub.u32(tex.Slot)
			}
			sub.u32(uint32(len(mat.Floats)))
			for _, p := range mat.Floats {
				sub.str(p.Name)
				sub.f32(p.Value)
			}
			sub.u32(uint32(len(mat.Colors)))
			for _, p := range mat.Colors {
				sub.str(p.Name)
				sub.vec4(p.Value)
			}
			sub.str(mat.AlphaType)
			sub.u32(uint32(len(mat.Samplers)))
			for _, s := range mat.Samplers {
				sub.u32(s.WrapU)
				sub.u32(s.WrapV)
			}
		})
	}
	return w.bytes(), nil
}
