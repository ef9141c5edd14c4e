package patch

import (
	"os"

	"github.com/agentci/agentci/internal/model"
)

// Getenv is the facade replacement for os.Getenv. A read is recorded as a
// sensitive_access effect only when key matches a policy.sensitive.block_env
// pattern (glob, case-insensitive) — ordinary environment reads produce no
// event, matching the original recorder's proxy semantics for the common
// case.
func (p *Patcher) Getenv(key string) string {
	v := os.Getenv(key)
	p.recordEnvAccess(key)
	return v
}

// LookupEnv is the facade replacement for os.LookupEnv.
func (p *Patcher) LookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	p.recordEnvAccess(key)
	return v, ok
}

func (p *Patcher) recordEnvAccess(key string) {
	if !matchesAnyEnvGlob(p.sensitive.BlockEnv, key) {
		return
	}
	p.emit(model.CategorySensitive, model.EffectPayload{
		Sensitive: &model.SensitiveEffectData{
			Type:    "env_var",
			KeyName: key,
		},
	})
}
