package device

// UniformKind is the declared GLSL-style type of a uniform
type UniformKind uint8

const (
	UniformFloat UniformKind = iota
	UniformInt
	UniformUInt
	UniformVec2
	UniformIVec2
	UniformUIVec2
	UniformVec3
	UniformIVec3
	UniformUIVec3
	UniformVec4
	UniformIVec4
	UniformUIVec4
	UniformMat2
	UniformMat3
	UniformMat4
)

var uniformKindNames = [...]string{
	UniformFloat:  "float",
	UniformInt:    "int",
	UniformUInt:   "uint",
	UniformVec2:   "vec2",
	UniformIVec2:  "ivec2",
	UniformUIVec2: "uvec2",
	UniformVec3:   "vec3",
	UniformIVec3:  "ivec3",
	UniformUIVec3: "uvec3",
	UniformVec4:   "vec4",
	UniformIVec4:  "ivec4",
	UniformUIVec4: "uvec4",
	UniformMat2:   "mat2",
	UniformMat3:   "mat3",
	UniformMat4:   "mat4",
}

func (k UniformKind) String() string {
	if int(k) < len(uniformKindNames) {
		return uniformKindNames[k]
	}
	return "invalid"
}

// Column-major matrices, matching the layout uploaded with transpose=false
type (
	Mat2 [4]float32
	Mat3 [9]float32
	Mat4 [16]float32
)

// Program is a linked kernel pair with typed uniform state
// Setters apply to the program regardless of whether it is current
// Unknown names are ignored; a kind mismatch queues ErrUniformType on the context
type Program interface {
	Use()
	Linked() bool
	InfoLog() string
	Delete()

	SetFloat(name string, x float32)
	SetInt(name string, x int32)
	SetUInt(name string, x uint32)
	SetVec2(name string, x, y float32)
	SetIVec2(name string, x, y int32)
	SetUIVec2(name string, x, y uint32)
	SetVec3(name string, x, y, z float32)
	SetIVec3(name string, x, y, z int32)
	SetUIVec3(name string, x, y, z uint32)
	SetVec4(name string, x, y, z, w float32)
	SetIVec4(name string, x, y, z, w int32)
	SetUIVec4(name string, x, y, z, w uint32)
	SetMat2(name string, m Mat2)
	SetMat3(name string, m Mat3)
	SetMat4(name string, m Mat4)
}
