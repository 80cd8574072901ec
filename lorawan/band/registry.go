package band

import "fmt"

// Config selects the runtime parameters a Get call needs beyond the
// region name: the sub-band to start with for US915 Hybrid, and the
// dwell-time limit flag for AS923.
type Config struct {
	SubBand          int
	DwellTimeLimited bool
}

// Get constructs the Region implementation for name.
func Get(name Name, cfg Config) (Region, error) {
	switch name {
	case EU868:
		return NewEU868(), nil
	case EU433:
		return NewEU433(), nil
	case US915:
		return NewUS915(), nil
	case US915Hybrid:
		return NewUS915Hybrid(cfg.SubBand), nil
	case AU915:
		return NewAU915(), nil
	case AS923:
		return NewAS923(cfg.DwellTimeLimited), nil
	case CN470:
		return NewCN470(), nil
	case CN779:
		return NewCN779(), nil
	case IN865:
		return NewIN865(), nil
	case KR920:
		return NewKR920(), nil
	default:
		return nil, fmt.Errorf("band: unknown region %q", name)
	}
}
