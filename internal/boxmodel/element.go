package boxmodel

// Element describes an isotope system: the light/heavy labels and the
// reference ratio r used to convert between delta values and
// light-isotope masses.
type Element struct {
	Name       string
	LightLabel string
	HeavyLabel string
	Scale      string  // isotope reference scale, e.g. VPDB
	R          float64 // reference heavy/light abundance ratio
}

// Species is an immutable description of a tracked chemical quantity.
type Species struct {
	Name    string
	Element *Element
}

// Built-in isotope systems. Reference ratios follow the IAEA values
// used throughout the marine geochemistry literature.
var (
	Carbon     = &Element{Name: "Carbon", LightLabel: "12C", HeavyLabel: "13C", Scale: "VPDB", R: 0.0112372}
	Sulfur     = &Element{Name: "Sulfur", LightLabel: "32S", HeavyLabel: "34S", Scale: "VCDT", R: 0.044162589}
	Oxygen     = &Element{Name: "Oxygen", LightLabel: "16O", HeavyLabel: "18O", Scale: "VSMOW", R: 2005.2e-6}
	Hydrogen   = &Element{Name: "Hydrogen", LightLabel: "1H", HeavyLabel: "2H", Scale: "VSMOW", R: 155.601e-6}
	Phosphorus = &Element{Name: "Phosphorus", LightLabel: "31P", HeavyLabel: "31P", Scale: "", R: 1}
)

var speciesTable = map[string]Species{
	"CO2":   {Name: "CO2", Element: Carbon},
	"CO2aq": {Name: "CO2aq", Element: Carbon},
	"DIC":   {Name: "DIC", Element: Carbon},
	"TA":    {Name: "TA", Element: Carbon},
	"CA":    {Name: "CA", Element: Carbon},
	"HCO3":  {Name: "HCO3", Element: Carbon},
	"CO3":   {Name: "CO3", Element: Carbon},
	"OM":    {Name: "OM", Element: Carbon},
	"CaCO3": {Name: "CaCO3", Element: Carbon},
	"SO4":   {Name: "SO4", Element: Sulfur},
	"H2S":   {Name: "H2S", Element: Sulfur},
	"HS":    {Name: "HS", Element: Sulfur},
	"S":     {Name: "S", Element: Sulfur},
	"O2":    {Name: "O2", Element: Oxygen},
	"PO4":   {Name: "PO4", Element: Phosphorus},
	"P":     {Name: "P", Element: Phosphorus},
	"Hplus": {Name: "Hplus", Element: Hydrogen},
	"H2O":   {Name: "H2O", Element: Hydrogen},
}

// SpeciesByName looks up a built-in species definition.
func SpeciesByName(name string) (Species, bool) {
	s, ok := speciesTable[name]
	return s, ok
}

// SpeciesNames lists the built-in species in no particular order.
func SpeciesNames() []string {
	names := make([]string, 0, len(speciesTable))
	for n := range speciesTable {
		names = append(names, n)
	}
	return names
}

// LightMass converts a total mass and delta value into the light
// isotope mass for an element with reference ratio r.
func LightMass(m, delta, r float64) float64 {
	return 1000.0 * m / ((delta+1000.0)*r + 1000.0)
}

// DeltaOf converts a total mass and light-isotope mass into a delta
// value. A reservoir with no light isotope mass has no defined delta;
// callers must guard l > 0.
func DeltaOf(m, l, r float64) float64 {
	return 1000.0 * ((m-l)/l - r) / r
}
