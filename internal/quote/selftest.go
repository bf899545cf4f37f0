package quote

import "fmt"

type SelfTestResult struct {
	Name    string `json:"name"`
	Pass    bool   `json:"pass"`
	Details string `json:"details,omitempty"`
}

type SelfTestReport struct {
	Results []SelfTestResult `json:"results"`
	Passed  int              `json:"passed"`
	Failed  int              `json:"failed"`
}

func (r *SelfTestReport) add(name string, pass bool, details string) {
	r.Results = append(r.Results, SelfTestResult{Name: name, Pass: pass, Details: details})
	if pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// RunSelfTests runs the fixed sanity battery against the catalog. It needs a
// filament and a resin printer, a material named by each and a "wood"
// surface; missing pieces are reported as failed checks.
func RunSelfTests(c *Catalog) SelfTestReport {
	var r SelfTestReport

	fdm, hasFDM := c.PrinterByProcess(ProcessFilament)
	resin, hasResin := c.PrinterByProcess(ProcessResin)

	if hasFDM {
		r.add("Dims within FDM envelope", fdm.Fits(Dimensions{X: 100, Y: 100, Z: 50}), fdm.Key)
	} else {
		r.add("Dims within FDM envelope", false, "no filament printer")
	}

	if hasResin {
		r.add("Dims exceed resin envelope", !resin.Fits(Dimensions{X: 200, Y: 100, Z: 180}), resin.Key)
	} else {
		r.add("Dims exceed resin envelope", false, "no resin printer")
	}

	if hasFDM {
		if mat, err := c.Material(fdm.DefaultMaterial); err == nil {
			g20 := EstimateFilamentGrams(100, mat.Density, 20)
			g60 := EstimateFilamentGrams(100, mat.Density, 60)
			r.add("FDM grams increase with infill", g60 > g20, fmt.Sprintf("g20=%.2f g60=%.2f", g20, g60))
		} else {
			r.add("FDM grams increase with infill", false, err.Error())
		}
	} else {
		r.add("FDM grams increase with infill", false, "no filament printer")
	}

	h50, h100 := EstimateResinHours(50), EstimateResinHours(100)
	r.add("Resin hours scale with height", h100 > h50, fmt.Sprintf("h50=%.2f h100=%.2f", h50, h100))

	if hasFDM {
		// 10x10x10 mm is 1 cm³, far below any minimum charge
		q, err := c.QuotePrint(PrintRequest{Printer: fdm.Key, Dimensions: Dimensions{X: 10, Y: 10, Z: 10}, Quantity: 1})
		if err != nil {
			r.add("Min price enforced FDM", false, err.Error())
		} else {
			r.add("Min price enforced FDM", q.PerUnit >= fdm.MinPrice, fmt.Sprintf("perUnit=%.2f", q.PerUnit))
		}
	} else {
		r.add("Min price enforced FDM", false, "no filament printer")
	}

	if hasFDM && hasResin {
		dims := Dimensions{X: 100, Y: 80, Z: 40}
		fq, ferr := c.QuotePrint(PrintRequest{Printer: fdm.Key, Dimensions: dims, Quantity: 1})
		rq, rerr := c.QuotePrint(PrintRequest{Printer: resin.Key, Dimensions: dims, Quantity: 1})
		if ferr != nil || rerr != nil {
			r.add("Resin more expensive (typical)", false, "quote failed")
		} else {
			r.add("Resin more expensive (typical)", rq.PerUnit > fq.PerUnit,
				fmt.Sprintf("fdm=%.2f resin=%.2f", fq.PerUnit, rq.PerUnit))
		}
	} else {
		r.add("Resin more expensive (typical)", false, "needs both printer kinds")
	}

	small, serr := c.QuoteEngrave(EngraveRequest{Surface: "wood", AreaCm2: 50, Complexity: neutralComplex, Quantity: 1})
	big, berr := c.QuoteEngrave(EngraveRequest{Surface: "wood", AreaCm2: 200, Complexity: neutralComplex, Quantity: 1})
	if serr != nil || berr != nil {
		r.add("Engrave scales with area", false, "no wood surface")
	} else {
		r.add("Engrave scales with area", big.PerUnit > small.PerUnit,
			fmt.Sprintf("small=%.2f big=%.2f", small.PerUnit, big.PerUnit))
	}

	disc := c.ApplyDiscount(500)
	r.add("Discount applied for 500", disc < 500, fmt.Sprintf("after=%.2f", disc))

	if hasFDM {
		r.add("Invalid dims exceed FDM envelope", !fdm.Fits(Dimensions{X: 500, Y: 500, Z: 500}), fdm.Key)
	} else {
		r.add("Invalid dims exceed FDM envelope", false, "no filament printer")
	}

	return r
}
