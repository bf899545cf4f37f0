package config

import (
	"fmt"

	"github.com/spf13/viper"

	"ph-studio/internal/quote"
)

type pricingFile struct {
	Pricing   pricingParams  `mapstructure:"pricing"`
	Printers  []printerEntry `mapstructure:"printers"`
	Materials []materialRow  `mapstructure:"materials"`
	Surfaces  []surfaceRow   `mapstructure:"surfaces"`
	Discounts []discountRow  `mapstructure:"discounts"`
}

type pricingParams struct {
	MarkupPercent   float64 `mapstructure:"markup_percent"`
	LaborFee        float64 `mapstructure:"labor_fee"`
	EngraveMinPrice float64 `mapstructure:"engrave_min_price"`
}

type printerEntry struct {
	Key             string     `mapstructure:"key"`
	Name            string     `mapstructure:"name"`
	Process         string     `mapstructure:"process"`
	Envelope        [3]float64 `mapstructure:"envelope"`
	MachineRate     float64    `mapstructure:"machine_rate_per_hour"`
	GramsPerHour    float64    `mapstructure:"grams_per_hour"`
	PostProcessFee  float64    `mapstructure:"post_process_fee"`
	DefaultMaterial string     `mapstructure:"default_material"`
	InfillPercent   float64    `mapstructure:"infill_percent"`
	MinPrice        float64    `mapstructure:"min_price"`
}

type materialRow struct {
	Key          string  `mapstructure:"key"`
	Name         string  `mapstructure:"name"`
	Density      float64 `mapstructure:"density"`
	PricePerGram float64 `mapstructure:"price_per_gram"`
}

type surfaceRow struct {
	Key         string  `mapstructure:"key"`
	Name        string  `mapstructure:"name"`
	PricePerCm2 float64 `mapstructure:"price_per_cm2"`
	SetupFee    float64 `mapstructure:"setup_fee"`
}

type discountRow struct {
	Threshold float64 `mapstructure:"threshold"`
	Factor    float64 `mapstructure:"factor"`
}

// LoadCatalog builds the price list. Without a file the built-in tables are
// used; a file may override any section and the rest keeps its defaults.
// The file is read once: the catalog is immutable for the process lifetime.
func LoadCatalog(path string) (*quote.Catalog, error) {
	const operation = "config.LoadCatalog"

	if path == "" {
		return quote.DefaultCatalog(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	def := quote.DefaultPricing()
	v.SetDefault("pricing.markup_percent", def.MarkupPercent)
	v.SetDefault("pricing.labor_fee", def.LaborFee)
	v.SetDefault("pricing.engrave_min_price", def.EngraveMinPrice)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%s: read %s: %w", operation, path, err)
	}

	var f pricingFile
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("%s: decode %s: %w", operation, path, err)
	}

	printers := quote.DefaultPrinters()
	if len(f.Printers) > 0 {
		printers = printers[:0]
		for _, p := range f.Printers {
			printers = append(printers, quote.PrinterProfile{
				Key:                p.Key,
				Name:               p.Name,
				Process:            quote.Process(p.Process),
				Envelope:           quote.Dimensions{X: p.Envelope[0], Y: p.Envelope[1], Z: p.Envelope[2]},
				MachineRatePerHour: p.MachineRate,
				GramsPerHour:       p.GramsPerHour,
				PostProcessFee:     p.PostProcessFee,
				DefaultMaterial:    p.DefaultMaterial,
				InfillPercent:      p.InfillPercent,
				MinPrice:           p.MinPrice,
			})
		}
	}

	materials := quote.DefaultMaterials()
	if len(f.Materials) > 0 {
		materials = materials[:0]
		for _, m := range f.Materials {
			materials = append(materials, quote.MaterialProfile(m))
		}
	}

	surfaces := quote.DefaultSurfaces()
	if len(f.Surfaces) > 0 {
		surfaces = surfaces[:0]
		for _, s := range f.Surfaces {
			surfaces = append(surfaces, quote.EngraveSurfaceProfile(s))
		}
	}

	tiers := quote.DefaultTiers()
	if len(f.Discounts) > 0 {
		tiers = tiers[:0]
		for _, d := range f.Discounts {
			tiers = append(tiers, quote.DiscountTier(d))
		}
	}

	c, err := quote.NewCatalog(printers, materials, surfaces, tiers, quote.Pricing(f.Pricing))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	return c, nil
}
