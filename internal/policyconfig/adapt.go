package policyconfig

import "github.com/agentci/agentci/internal/normalize"

// NormalizeConfig projects the loaded policy configuration onto the
// normalize.Config shape internal/signature and internal/patch consume.
func (c Config) NormalizeConfig() normalize.Config {
	return normalize.Config{
		FS: normalize.FSConfig{
			CollapseTemp: c.Normalization.Filesystem.CollapseTemp,
			CollapseHome: c.Normalization.Filesystem.CollapseHome,
			IgnoreGlobs:  c.Normalization.Filesystem.IgnoreGlobs,
			RedactPaths:  c.Redaction.RedactPaths,
			HashValues:   c.Redaction.HashValues,
		},
		Host: normalize.HostConfig{
			RedactHosts:  c.Redaction.RedactURLs,
			HashValues:   c.Redaction.HashValues,
			Canonicalize: c.Normalization.Network.NormalizeHosts,
		},
		Exec: normalize.ExecConfig{
			Mode:         normalize.ArgvMode(c.Normalization.Exec.ArgvMode),
			MaskPatterns: c.Normalization.Exec.MaskPatterns,
		},
	}
}
