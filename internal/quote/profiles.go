package quote

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownPrinter  = errors.New("unknown printer")
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownSurface  = errors.New("unknown engraving surface")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrOutOfRange      = errors.New("input too large to price")
	ErrInvalidCatalog  = errors.New("invalid pricing catalog")
)

type Process string

const (
	ProcessFilament Process = "filament"
	ProcessResin    Process = "resin"
)

// Dimensions are millimetres along the printer axes.
type Dimensions struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Volume returns the bounding-box volume in cm³.
func (d Dimensions) Volume() float64 {
	return d.X * d.Y * d.Z / 1000
}

type PrinterProfile struct {
	Key                string     `json:"key"`
	Name               string     `json:"name"`
	Process            Process    `json:"process"`
	Envelope           Dimensions `json:"envelope"`
	MachineRatePerHour float64    `json:"machineRatePerHour"`
	GramsPerHour       float64    `json:"gramsPerHour,omitempty"`
	PostProcessFee     float64    `json:"postProcessFee,omitempty"`
	DefaultMaterial    string     `json:"defaultMaterial"`
	InfillPercent      float64    `json:"-"`
	MinPrice           float64    `json:"minPrice"`
}

// Fits reports whether every axis is positive and inside the build envelope.
func (p PrinterProfile) Fits(d Dimensions) bool {
	return d.X > 0 && d.Y > 0 && d.Z > 0 &&
		d.X <= p.Envelope.X && d.Y <= p.Envelope.Y && d.Z <= p.Envelope.Z
}

type MaterialProfile struct {
	Key          string  `json:"key"`
	Name         string  `json:"name"`
	Density      float64 `json:"density"`
	PricePerGram float64 `json:"pricePerGram"`
}

type EngraveSurfaceProfile struct {
	Key         string  `json:"key"`
	Name        string  `json:"name"`
	PricePerCm2 float64 `json:"pricePerCm2"`
	SetupFee    float64 `json:"setupFee"`
}

type DiscountTier struct {
	Threshold float64 `json:"threshold"`
	Factor    float64 `json:"factor"`
}

// Pricing holds the commercial parameters that are not tied to a single profile.
type Pricing struct {
	MarkupPercent   float64 `json:"markupPercent"`
	LaborFee        float64 `json:"laborFee"`
	EngraveMinPrice float64 `json:"engraveMinPrice"`
}

func DefaultPricing() Pricing {
	return Pricing{
		MarkupPercent:   30,
		LaborFee:        3,
		EngraveMinPrice: 12,
	}
}

// Catalog is the read-only set of pricing tables. Build it once with
// NewCatalog or DefaultCatalog and share it freely between goroutines.
type Catalog struct {
	printers    []PrinterProfile
	materials   []MaterialProfile
	surfaces    []EngraveSurfaceProfile
	tiers       []DiscountTier
	pricing     Pricing
	printerIdx  map[string]int
	materialIdx map[string]int
	surfaceIdx  map[string]int
}

func NewCatalog(
	printers []PrinterProfile,
	materials []MaterialProfile,
	surfaces []EngraveSurfaceProfile,
	tiers []DiscountTier,
	pricing Pricing,
) (*Catalog, error) {
	const operation = "quote.NewCatalog"

	c := &Catalog{
		printers:    append([]PrinterProfile(nil), printers...),
		materials:   append([]MaterialProfile(nil), materials...),
		surfaces:    append([]EngraveSurfaceProfile(nil), surfaces...),
		tiers:       append([]DiscountTier(nil), tiers...),
		pricing:     pricing,
		printerIdx:  make(map[string]int, len(printers)),
		materialIdx: make(map[string]int, len(materials)),
		surfaceIdx:  make(map[string]int, len(surfaces)),
	}

	if len(c.printers) == 0 {
		return nil, fmt.Errorf("%s: no printers: %w", operation, ErrInvalidCatalog)
	}
	if pricing.MarkupPercent < 0 || pricing.LaborFee < 0 || pricing.EngraveMinPrice < 0 {
		return nil, fmt.Errorf("%s: negative pricing parameter: %w", operation, ErrInvalidCatalog)
	}

	for i, m := range c.materials {
		if m.Key == "" || m.Density <= 0 || m.PricePerGram < 0 {
			return nil, fmt.Errorf("%s: material %q: %w", operation, m.Key, ErrInvalidCatalog)
		}
		if _, dup := c.materialIdx[m.Key]; dup {
			return nil, fmt.Errorf("%s: duplicate material %q: %w", operation, m.Key, ErrInvalidCatalog)
		}
		c.materialIdx[m.Key] = i
	}

	for i, p := range c.printers {
		if p.Key == "" {
			return nil, fmt.Errorf("%s: printer without key: %w", operation, ErrInvalidCatalog)
		}
		if p.Process != ProcessFilament && p.Process != ProcessResin {
			return nil, fmt.Errorf("%s: printer %q: process %q: %w", operation, p.Key, p.Process, ErrInvalidCatalog)
		}
		if p.Envelope.X <= 0 || p.Envelope.Y <= 0 || p.Envelope.Z <= 0 {
			return nil, fmt.Errorf("%s: printer %q: empty envelope: %w", operation, p.Key, ErrInvalidCatalog)
		}
		if p.MachineRatePerHour < 0 || p.GramsPerHour < 0 || p.PostProcessFee < 0 || p.MinPrice < 0 {
			return nil, fmt.Errorf("%s: printer %q: negative rate: %w", operation, p.Key, ErrInvalidCatalog)
		}
		if _, ok := c.materialIdx[p.DefaultMaterial]; !ok {
			return nil, fmt.Errorf("%s: printer %q: material %q: %w", operation, p.Key, p.DefaultMaterial, ErrUnknownMaterial)
		}
		if _, dup := c.printerIdx[p.Key]; dup {
			return nil, fmt.Errorf("%s: duplicate printer %q: %w", operation, p.Key, ErrInvalidCatalog)
		}
		c.printerIdx[p.Key] = i
	}

	for i, s := range c.surfaces {
		if s.Key == "" || s.PricePerCm2 < 0 || s.SetupFee < 0 {
			return nil, fmt.Errorf("%s: surface %q: %w", operation, s.Key, ErrInvalidCatalog)
		}
		if _, dup := c.surfaceIdx[s.Key]; dup {
			return nil, fmt.Errorf("%s: duplicate surface %q: %w", operation, s.Key, ErrInvalidCatalog)
		}
		c.surfaceIdx[s.Key] = i
	}

	for _, t := range c.tiers {
		if t.Threshold < 0 || t.Factor <= 0 || t.Factor > 1 {
			return nil, fmt.Errorf("%s: discount tier %+v: %w", operation, t, ErrInvalidCatalog)
		}
	}
	sort.SliceStable(c.tiers, func(i, j int) bool {
		return c.tiers[i].Threshold < c.tiers[j].Threshold
	})

	return c, nil
}

// DefaultCatalog returns the studio's built-in price list.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultPrinters(), DefaultMaterials(), DefaultSurfaces(), DefaultTiers(), DefaultPricing())
	if err != nil {
		panic(err)
	}
	return c
}

func DefaultPrinters() []PrinterProfile {
	return []PrinterProfile{
		{
			Key:                "FDM_Ender3Pro",
			Name:               "Ender‑3 Pro (FDM)",
			Process:            ProcessFilament,
			Envelope:           Dimensions{X: 220, Y: 220, Z: 250},
			MachineRatePerHour: 8.0,
			GramsPerHour:       12,
			DefaultMaterial:    "PLA",
			InfillPercent:      20,
			MinPrice:           10,
		},
		{
			Key:                "Resin_PhotonMono",
			Name:               "Anycubic Photon Mono (Resin)",
			Process:            ProcessResin,
			Envelope:           Dimensions{X: 130, Y: 80, Z: 165},
			MachineRatePerHour: 14.0,
			PostProcessFee:     6.0,
			DefaultMaterial:    "RESIN_ABS",
			MinPrice:           18,
		},
	}
}

func DefaultMaterials() []MaterialProfile {
	return []MaterialProfile{
		{Key: "PLA", Name: "PLA (стандарт)", Density: 1.24, PricePerGram: 0.03},
		{Key: "PETG", Name: "PETG (устойчив)", Density: 1.27, PricePerGram: 0.035},
		{Key: "ABS", Name: "ABS (здрав)", Density: 1.05, PricePerGram: 0.04},
		{Key: "RESIN_ABS", Name: "Смола ABS-like (детайл)", Density: 1.10, PricePerGram: 0.049},
	}
}

func DefaultSurfaces() []EngraveSurfaceProfile {
	return []EngraveSurfaceProfile{
		{Key: "wood", Name: "Дърво", PricePerCm2: 0.10, SetupFee: 6},
		{Key: "steel", Name: "Неръждаема стомана", PricePerCm2: 0.25, SetupFee: 12},
		{Key: "stone", Name: "Камък/гранит", PricePerCm2: 0.20, SetupFee: 10},
		{Key: "glass", Name: "Стъкло", PricePerCm2: 0.22, SetupFee: 10},
		{Key: "leather", Name: "Кожа", PricePerCm2: 0.16, SetupFee: 8},
		{Key: "acrylic", Name: "Плексиглас", PricePerCm2: 0.14, SetupFee: 7},
	}
}

func DefaultTiers() []DiscountTier {
	return []DiscountTier{
		{Threshold: 200, Factor: 0.95},
		{Threshold: 400, Factor: 0.92},
		{Threshold: 800, Factor: 0.88},
	}
}

func (c *Catalog) Printer(key string) (PrinterProfile, error) {
	i, ok := c.printerIdx[key]
	if !ok {
		return PrinterProfile{}, fmt.Errorf("%w: %q", ErrUnknownPrinter, key)
	}
	return c.printers[i], nil
}

func (c *Catalog) Material(key string) (MaterialProfile, error) {
	i, ok := c.materialIdx[key]
	if !ok {
		return MaterialProfile{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, key)
	}
	return c.materials[i], nil
}

func (c *Catalog) Surface(key string) (EngraveSurfaceProfile, error) {
	i, ok := c.surfaceIdx[key]
	if !ok {
		return EngraveSurfaceProfile{}, fmt.Errorf("%w: %q", ErrUnknownSurface, key)
	}
	return c.surfaces[i], nil
}

func (c *Catalog) Printers() []PrinterProfile {
	return append([]PrinterProfile(nil), c.printers...)
}

func (c *Catalog) Materials() []MaterialProfile {
	return append([]MaterialProfile(nil), c.materials...)
}

func (c *Catalog) Surfaces() []EngraveSurfaceProfile {
	return append([]EngraveSurfaceProfile(nil), c.surfaces...)
}

// Tiers returns the discount tiers in ascending threshold order.
func (c *Catalog) Tiers() []DiscountTier {
	return append([]DiscountTier(nil), c.tiers...)
}

func (c *Catalog) Pricing() Pricing {
	return c.pricing
}

// PrinterByProcess returns the first printer using the given process.
func (c *Catalog) PrinterByProcess(p Process) (PrinterProfile, bool) {
	for _, pr := range c.printers {
		if pr.Process == p {
			return pr, true
		}
	}
	return PrinterProfile{}, false
}
