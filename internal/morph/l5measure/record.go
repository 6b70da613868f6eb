package l5measure

// Record is one object's measurement. Both schemas expose their columns in
// a fixed order so tables can be written without reflection.
type Record interface {
	ObjectLabel() uint32
	Columns() []string
	Values() []float64
	// ClassName is the size-class bucket of the maximum Feret diameter.
	ClassName() string
	// ClassColumn names the size-class column: pore_size_class or
	// grain_size_class.
	ClassColumn() string
	Feret() float64
	Aspect() float64
}

// degenerateEpsilon is the smallest axis or Feret length (mm) accepted
// before an object is considered degenerate.
const degenerateEpsilon = 1e-9

const (
	poreClassColumn  = "pore_size_class"
	grainClassColumn = "grain_size_class"
)

// withClassColumn returns base with the size-class column for each table
// appended.
func withClassColumn(base ...string) (pore, grain []string) {
	pore = append(append([]string(nil), base...), poreClassColumn)
	grain = append(append([]string(nil), base...), grainClassColumn)
	return pore, grain
}

func classColumn(grain bool) string {
	if grain {
		return grainClassColumn
	}
	return poreClassColumn
}

// Measurement3D is the fixed record of a volume object. Lengths are mm,
// areas mm², volumes mm³.
type Measurement3D struct {
	Label              uint32
	Count              int
	VoxelVolume        float64
	EquivalentDiameter float64 // diameter of the sphere with VoxelVolume
	MaxFeret           float64
	SemiAxes           [3]float64 // ascending
	AspectRatio        float64    // shortest/longest
	Elongation         float64    // longest/middle
	Flatness           float64    // middle/shortest
	EllipsoidVolume    float64
	SurfaceArea        float64 // convex hull area
	SphereDiameter     float64 // from EllipsoidVolume
	Sphericity         float64 // from VoxelVolume and SurfaceArea
	HullVolume         float64
	SizeClass          int
	SizeClassName      string
	Grain              bool // classified against the grain table
}

var columns3D, grainColumns3D = withClassColumn(
	"label", "voxel_count", "voxel_volume", "equivalent_diameter", "max_feret",
	"semi_axis_short", "semi_axis_mid", "semi_axis_long",
	"aspect_ratio", "elongation", "flatness",
	"ellipsoid_volume", "surface_area", "sphere_diameter_from_volume",
	"sphericity", "hull_volume",
)

func (m *Measurement3D) ObjectLabel() uint32 { return m.Label }
func (m *Measurement3D) ClassColumn() string { return classColumn(m.Grain) }
func (m *Measurement3D) ClassName() string   { return m.SizeClassName }
func (m *Measurement3D) Feret() float64      { return m.MaxFeret }
func (m *Measurement3D) Aspect() float64     { return m.AspectRatio }

func (m *Measurement3D) Columns() []string {
	if m.Grain {
		return grainColumns3D
	}
	return columns3D
}

func (m *Measurement3D) Values() []float64 {
	return []float64{
		float64(m.Label), float64(m.Count), m.VoxelVolume, m.EquivalentDiameter, m.MaxFeret,
		m.SemiAxes[0], m.SemiAxes[1], m.SemiAxes[2],
		m.AspectRatio, m.Elongation, m.Flatness,
		m.EllipsoidVolume, m.SurfaceArea, m.SphereDiameter,
		m.Sphericity, m.HullVolume, float64(m.SizeClass),
	}
}

// Measurement2D is the fixed record of a section object. Angles are
// degrees; corrected angles are NaN when no reference direction is set.
type Measurement2D struct {
	Label              uint32
	Count              int
	Area               float64 // pixel area
	EquivalentDiameter float64
	MinFeret           float64
	MaxFeret           float64
	MinFeretAngle      float64
	MaxFeretAngle      float64
	MinFeretCorrected  float64
	MaxFeretCorrected  float64
	Eccentricity       float64
	Elongation         float64
	AspectRatio        float64
	Perimeter          float64 // convex hull boundary
	HullArea           float64
	EllipsePerimeter   float64
	EllipseArea        float64
	Gamma              float64
	SizeClass          int
	SizeClassName      string
	Grain              bool // classified against the grain table
}

var columns2D, grainColumns2D = withClassColumn(
	"label", "pixel_count", "area", "equivalent_diameter",
	"min_feret", "max_feret", "min_feret_angle", "max_feret_angle",
	"min_feret_angle_corrected", "max_feret_angle_corrected",
	"eccentricity", "elongation", "aspect_ratio",
	"perimeter", "hull_area", "ellipse_perimeter", "ellipse_area",
	"gamma",
)

func (m *Measurement2D) ObjectLabel() uint32 { return m.Label }
func (m *Measurement2D) ClassColumn() string { return classColumn(m.Grain) }
func (m *Measurement2D) ClassName() string   { return m.SizeClassName }
func (m *Measurement2D) Feret() float64      { return m.MaxFeret }
func (m *Measurement2D) Aspect() float64     { return m.AspectRatio }

func (m *Measurement2D) Columns() []string {
	if m.Grain {
		return grainColumns2D
	}
	return columns2D
}

func (m *Measurement2D) Values() []float64 {
	return []float64{
		float64(m.Label), float64(m.Count), m.Area, m.EquivalentDiameter,
		m.MinFeret, m.MaxFeret, m.MinFeretAngle, m.MaxFeretAngle,
		m.MinFeretCorrected, m.MaxFeretCorrected,
		m.Eccentricity, m.Elongation, m.AspectRatio,
		m.Perimeter, m.HullArea, m.EllipsePerimeter, m.EllipseArea,
		m.Gamma, float64(m.SizeClass),
	}
}
