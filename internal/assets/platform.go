package assets

import (
	"fmt"
	"strings"
)

// Platform identifies the client platform or pseudo-platform making a
// request. The transcoder uses it to pick the encode branch; the catalog
// records it as each asset's platform of origin.
type Platform int

const (
	PlatformMainline Platform = iota
	PlatformVita
	PlatformPSP
	PlatformWeb
)

// ConversionFamily groups platforms by the container family their converted
// assets share. The catalog caches one converted hash per family, not per
// platform, because every member of a family receives identical bytes.
type ConversionFamily int

const (
	FamilyMainline ConversionFamily = iota
	FamilyHandheld
)

var platformNames = map[Platform]string{
	PlatformMainline: "mainline",
	PlatformVita:     "vita",
	PlatformPSP:      "psp",
	PlatformWeb:      "web",
}

func (p Platform) String() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return fmt.Sprintf("platform(%d)", int(p))
}

// Family returns the conversion family the platform belongs to. Only the
// handheld needs its own family; Vita and web consume mainline containers.
func (p Platform) Family() ConversionFamily {
	if p == PlatformPSP {
		return FamilyHandheld
	}
	return FamilyMainline
}

// StoreKeyPrefix returns the content-store path segment that namespaces
// handheld-origin blobs away from mainline ones.
func (p Platform) StoreKeyPrefix() string {
	if p == PlatformPSP {
		return "psp/"
	}
	return ""
}

// ParsePlatform maps an external platform name to a Platform value.
func ParsePlatform(name string) (Platform, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for platform, platformName := range platformNames {
		if platformName == normalized {
			return platform, nil
		}
	}
	return PlatformMainline, fmt.Errorf("assets: unknown platform %q", name)
}

func (f ConversionFamily) String() string {
	if f == FamilyHandheld {
		return "handheld"
	}
	return "mainline"
}
