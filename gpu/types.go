package gpu

// ElemKind describes the element type stored in a device buffer.
type ElemKind uint8

const (
	ElemFloat32 ElemKind = iota
	ElemFloat64
	ElemInt32
)

// Size returns the element size in bytes.
func (k ElemKind) Size() int {
	switch k {
	case ElemFloat64:
		return 8
	case ElemFloat32, ElemInt32:
		return 4
	default:
		return 0
	}
}

func (k ElemKind) String() string {
	switch k {
	case ElemFloat32:
		return "float32"
	case ElemFloat64:
		return "float64"
	case ElemInt32:
		return "int32"
	default:
		return "unknown"
	}
}

// DeviceInfo describes a GPU device.
type DeviceInfo struct {
	Name       string
	Vendor     string
	Driver     string
	MemoryMB   int
	ComputeCap string
}

// BackendInfo describes a backend implementation.
type BackendInfo struct {
	Name        string
	Version     string
	Description string
}
