package kernels

// Ratios are the model-wide stoichiometric constants consumed by the
// biogeochemical kernels.
type Ratios struct {
	PC       float64 // P:C
	NC       float64 // N:C
	O2C      float64 // O2:C
	PUE      float64 // phosphorus utilization efficiency
	RainRate float64 // OM:CaCO3 export ratio
	AlphaOM  float64 // photosynthetic fractionation factor, 1 + eps/1000
}

// PhotoInput is the previous-step state seen by the photosynthesis
// kernel. DIC values are masses of the surface DIC pool, H2S is a
// concentration.
type PhotoInput struct {
	DICMass      float64
	DICLight     float64
	H2S          float64
	Volume       float64
	Productivity float64 // PO4 export, mol P/yr
}

// PhotoResult are the per-species flux contributions of one surface
// box, all in mol/yr. OM and CaCO3 are the export fluxes handed to
// the deep-box remineralization kernel.
type PhotoResult struct {
	O2         float64
	TA         float64
	PO4        float64
	SO4        float64
	H2S        float64
	DIC        float64
	DICLight   float64
	OM         float64
	OMLight    float64
	CaCO3      float64
	CaCO3Light float64
}

// Photosynthesis converts PO4 into organic matter at the Redfield
// carbon ratio, precipitates associated CaCO3 at the rain rate,
// releases O2 and oxidizes any H2S present, assuming the surface box
// never runs out of oxygen.
//
// Alkalinity bookkeeping: nitrate uptake during OM formation adds
// TA at the N:C ratio, CaCO3 precipitation removes two equivalents
// per mole, and H2S oxidation to sulfate removes two equivalents per
// mole of sulfur oxidized. A degenerate DIC pool (no heavy carbon
// left) is a domain error.
func Photosynthesis(in PhotoInput, r Ratios) (PhotoResult, error) {
	var out PhotoResult

	// OM formation draws PO4 and DIC
	out.PO4 = -in.Productivity * r.PUE
	out.OM = -out.PO4 * r.PC
	ratio, err := RatioFromAlpha(in.DICMass, in.DICLight, r.AlphaOM)
	if err != nil {
		return PhotoResult{}, err
	}
	out.OMLight = out.OM * ratio
	out.DIC = -out.OM
	out.DICLight = -out.OMLight
	out.TA = out.OM * r.NC

	// CaCO3 precipitation, no fractionation
	out.CaCO3 = out.OM / r.RainRate
	out.CaCO3Light = out.CaCO3 * in.DICLight / in.DICMass
	out.DIC -= out.CaCO3
	out.DICLight -= out.CaCO3Light
	out.TA -= 2 * out.CaCO3

	// H2S oxidation, surplus O2 assumed
	mH2S := in.H2S * in.Volume
	out.H2S = -mH2S
	out.SO4 = mH2S
	out.TA -= 2 * mH2S

	out.O2 = out.OM*r.O2C - 2*mH2S
	return out, nil
}

// ReminInput is the previous-step state seen by the remineralization
// kernel. OM and CaCO3 are the efficiency-weighted sums of the export
// fluxes reaching the box; H2S and O2 are concentrations.
type ReminInput struct {
	OM         float64
	OMLight    float64
	CaCO3      float64
	CaCO3Light float64
	H2S        float64
	O2         float64
	Volume     float64
}

// ReminResult are the per-species flux contributions, mol/yr.
type ReminResult struct {
	TA       float64
	H2S      float64
	SO4      float64
	O2       float64
	PO4      float64
	DIC      float64
	DICLight float64
	Oxic     bool
}

// Remineralization oxidizes the organic matter reaching a deep box.
// PO4 return, alkalinity drawdown and DIC release happen regardless
// of oxygen. The redox branch compares available O2 against the
// demand to oxidize all OM plus all resident H2S: with enough O2 the
// box stays oxic and sulfide is fully oxidized to sulfate; otherwise
// all O2 is consumed and the remaining OM is oxidized by sulfate
// reduction at one SO4 per two carbon, adding two equivalents of TA
// per sulfate reduced. An exact tie counts as oxic. CaCO3 dissolution
// adds DIC and two equivalents of TA per mole when enabled.
func Remineralization(in ReminInput, r Ratios, caco3 bool) ReminResult {
	var out ReminResult

	out.PO4 = in.OM / r.PC
	out.TA = -in.OM * r.NC
	out.DIC = in.OM
	out.DICLight = in.OMLight

	mH2S := in.H2S * in.Volume
	mO2 := in.O2 * in.Volume
	demand := in.OM*r.O2C + 2*mH2S

	if mO2 >= demand {
		out.Oxic = true
		out.O2 = -demand
		out.H2S = -mH2S
		out.SO4 = mH2S
		out.TA -= 2 * mH2S
	} else {
		out.O2 = -mO2
		rem := in.OM - mO2/r.O2C
		out.SO4 = -rem / 2
		out.H2S = rem / 2
		out.TA += rem
	}

	if caco3 {
		out.DIC += in.CaCO3
		out.DICLight += in.CaCO3Light
		out.TA += 2 * in.CaCO3
	}
	return out
}
