// Package models contains the data structures used throughout magic-packet.
package models

// TargetConfig holds the persisted Wake-on-LAN target.
type TargetConfig struct {
	MAC string `mapstructure:"mac" toml:"mac" yaml:"mac" json:"mac"`
	IP  string `mapstructure:"ip" toml:"ip" yaml:"ip" json:"ip"`
}

// IsEmpty reports whether neither field has been configured.
func (c TargetConfig) IsEmpty() bool {
	return c.MAC == "" && c.IP == ""
}
