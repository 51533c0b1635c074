package hydrometer

// Color identifies one physical hydrometer. Tilts broadcast a fixed UUID per
// color; the RAPT Pill offers no usable identity in its advertisements, so all
// Pill traffic is attributed to PillColor (cannot yet distinguish multiple Pills).
type Color string

const (
	Red    Color = "Red"
	Green  Color = "Green"
	Black  Color = "Black"
	Purple Color = "Purple"
	Orange Color = "Orange"
	Blue   Color = "Blue"
	Yellow Color = "Yellow"
	Pink   Color = "Pink"
)

// PillColor is the identity assigned to every RAPT Pill advertisement.
const PillColor = Yellow

// tiltUUIDs maps the 128-bit iBeacon UUID (lowercase hex, no dashes) to the
// Tilt color that broadcasts it.
var tiltUUIDs = map[string]Color{
	"a495bb10c5b14b44b5121370f02d74de": Red,
	"a495bb20c5b14b44b5121370f02d74de": Green,
	"a495bb30c5b14b44b5121370f02d74de": Black,
	"a495bb40c5b14b44b5121370f02d74de": Purple,
	"a495bb50c5b14b44b5121370f02d74de": Orange,
	"a495bb60c5b14b44b5121370f02d74de": Blue,
	"a495bb70c5b14b44b5121370f02d74de": Yellow,
	"a495bb80c5b14b44b5121370f02d74de": Pink,
}

// TiltColors returns every known Tilt color in a stable order.
func TiltColors() []Color {
	return []Color{Red, Green, Black, Purple, Orange, Blue, Yellow, Pink}
}

// PillColors returns every known RAPT Pill identity.
func PillColors() []Color {
	return []Color{PillColor}
}

func tiltColorByUUID(uuid string) (Color, bool) {
	c, ok := tiltUUIDs[uuid]
	return c, ok
}
