/*Package config loads the parameters that govern a distributed octree
build from a gcfg-style ini file, following the section/field layout and
CheckInit validation pattern used throughout gotetra's io package.
*/
package config

import (
	"fmt"

	"gopkg.in/gcfg.v1"
)

// TreeConfig holds the [tree] section: the parameters that determine how
// finely the cornerstone octree resolves and how loosely the Barnes-Hut
// style acceptance criterion is applied.
type TreeConfig struct {
	// Bucket is the maximum particle count a leaf may hold before it is
	// split, unless it has already reached LMax.
	Bucket int

	// LMax64 selects whether keys are encoded as 64-bit (LMax=21) rather
	// than 32-bit (LMax=10) Morton codes.
	LMax64 bool

	// Theta is the multipole acceptance criterion opening angle used by
	// the focused octree.
	Theta float64
}

// DomainConfig holds the [domain] section: the simulation volume and its
// per-axis periodicity.
type DomainConfig struct {
	XMin, XMax, YMin, YMax, ZMin, ZMax float64
	PBCX, PBCY, PBCZ                   bool
}

// NeighborConfig holds the [neighbor] section: the fixed-capacity
// neighbor list size used by the neighbor search.
type NeighborConfig struct {
	MaxNeighbors int
}

// Config is the root of a parsed configuration file.
type Config struct {
	Tree     TreeConfig
	Domain   DomainConfig
	Neighbor NeighborConfig
}

type fileFormat struct {
	Tree struct {
		Bucket int
		LMax64 bool
		Theta  float64
	}
	Domain struct {
		XMin, XMax, YMin, YMax, ZMin, ZMax float64
		PBCX, PBCY, PBCZ                   bool
	}
	Neighbor struct {
		MaxNeighbors int
	}
}

// ReadString parses cfg text in gcfg's ini-like format into a Config,
// applying the same defaulting and range-checking discipline as
// gotetra's *Config.CheckInit methods.
func ReadString(cfg string) (*Config, error) {
	var raw fileFormat
	if err := gcfg.ReadStringInto(&raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	c := &Config{
		Tree: TreeConfig{
			Bucket: raw.Tree.Bucket,
			LMax64: raw.Tree.LMax64,
			Theta:  raw.Tree.Theta,
		},
		Domain: DomainConfig{
			XMin: raw.Domain.XMin, XMax: raw.Domain.XMax,
			YMin: raw.Domain.YMin, YMax: raw.Domain.YMax,
			ZMin: raw.Domain.ZMin, ZMax: raw.Domain.ZMax,
			PBCX: raw.Domain.PBCX, PBCY: raw.Domain.PBCY, PBCZ: raw.Domain.PBCZ,
		},
		Neighbor: NeighborConfig{MaxNeighbors: raw.Neighbor.MaxNeighbors},
	}
	if err := c.CheckInit(); err != nil {
		return nil, err
	}
	return c, nil
}

// CheckInit validates and defaults a Config in place, mirroring the
// *Config.CheckInit convention used throughout gotetra's io package.
func (c *Config) CheckInit() error {
	if c.Tree.Bucket <= 0 {
		c.Tree.Bucket = 64
	}
	if c.Tree.Theta == 0 {
		c.Tree.Theta = 0.5
	} else if c.Tree.Theta < 0 {
		return fmt.Errorf("tree.theta must be non-negative, got %g", c.Tree.Theta)
	}
	if c.Domain.XMax <= c.Domain.XMin {
		return fmt.Errorf("domain.xmax (%g) must exceed domain.xmin (%g)",
			c.Domain.XMax, c.Domain.XMin)
	}
	if c.Domain.YMax <= c.Domain.YMin {
		return fmt.Errorf("domain.ymax (%g) must exceed domain.ymin (%g)",
			c.Domain.YMax, c.Domain.YMin)
	}
	if c.Domain.ZMax <= c.Domain.ZMin {
		return fmt.Errorf("domain.zmax (%g) must exceed domain.zmin (%g)",
			c.Domain.ZMax, c.Domain.ZMin)
	}
	if c.Neighbor.MaxNeighbors <= 0 {
		c.Neighbor.MaxNeighbors = 200
	}
	return nil
}
