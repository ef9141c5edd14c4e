// Package signature implements the Signature Builder (C7): it consumes a
// run's trace.jsonl, applies the Normalizer (C2), and produces the
// canonical, deterministic Effect Signature defined in §3.
package signature

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/agentci/agentci/internal/canon"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/normalize"
)

// Options carries the normalization parameters and metadata stamped onto
// the produced signature.
type Options struct {
	Norm           normalize.Config
	ArgvMode       normalize.ArgvMode
	WorkspaceRoot  string
	ToolVersion    string
	RuntimeVersion string
	Platform       string
	ScenarioID     string
}

type accumulator struct {
	fsWrites       map[string]struct{}
	fsReadsExt     map[string]struct{}
	fsDeletes      map[string]struct{}
	netProtocols   map[string]struct{}
	netETLDPlus1   map[string]struct{}
	netHosts       map[string]struct{}
	netPorts       map[int]struct{}
	execCommands   map[string]struct{}
	execArgv       map[string]struct{}
	sensitiveKeys  map[string]struct{}
	sawToolAdapter bool
	adapter        model.Adapter
}

func newAccumulator() *accumulator {
	return &accumulator{
		fsWrites:      map[string]struct{}{},
		fsReadsExt:    map[string]struct{}{},
		fsDeletes:     map[string]struct{}{},
		netProtocols:  map[string]struct{}{},
		netETLDPlus1:  map[string]struct{}{},
		netHosts:      map[string]struct{}{},
		netPorts:      map[int]struct{}{},
		execCommands:  map[string]struct{}{},
		execArgv:      map[string]struct{}{},
		sensitiveKeys: map[string]struct{}{},
	}
}

// BuildFromFile opens path and delegates to Build.
func BuildFromFile(path string, opts Options) (model.Signature, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Signature{}, err
	}
	defer f.Close()
	return Build(f, opts)
}

// Build reads every line of r, tolerating malformed lines (including a
// truncated final line), and produces a deterministic signature.
func Build(r io.Reader, opts Options) (model.Signature, error) {
	acc := newAccumulator()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev model.TraceEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		if ev.Type == "" {
			continue
		}
		switch ev.Type {
		case model.EventEffect:
			var payload model.EffectPayload
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				continue
			}
			acc.applyEffect(payload, opts)
		case model.EventToolCall, model.EventToolResult:
			acc.sawToolAdapter = true
		}
	}
	// sc.Err() is intentionally ignored: a malformed trailing line (e.g. a
	// process killed mid-write) must not fail the whole build.

	adapter := model.AdapterNodeHook
	if acc.sawToolAdapter {
		adapter = model.AdapterOpenClawNode
	}

	return model.Signature{
		Meta: model.SignatureMeta{
			SignatureVersion:          model.SignatureVersion,
			NormalizationRulesVersion: normalizationRulesVersion,
			ToolVersion:               opts.ToolVersion,
			Platform:                  opts.Platform,
			Adapter:                  adapter,
			ScenarioID:                opts.ScenarioID,
			RuntimeVersion:            opts.RuntimeVersion,
		},
		Effects: model.Effects{
			FSWrites:              sortedKeys(acc.fsWrites),
			FSReadsExternal:       sortedKeys(acc.fsReadsExt),
			FSDeletes:             sortedKeys(acc.fsDeletes),
			NetProtocols:          sortedKeys(acc.netProtocols),
			NetETLDPlus1:          sortedKeys(acc.netETLDPlus1),
			NetHosts:              sortedKeys(acc.netHosts),
			NetPorts:              sortedIntKeys(acc.netPorts),
			ExecCommands:          sortedKeys(acc.execCommands),
			ExecArgv:              sortedKeys(acc.execArgv),
			SensitiveKeysAccessed: sortedKeys(acc.sensitiveKeys),
		},
	}, nil
}

// normalizationRulesVersion is bumped whenever the normalization grammar in
// internal/normalize changes in a way that would change existing output.
const normalizationRulesVersion = "1.0"

func (a *accumulator) applyEffect(payload model.EffectPayload, opts Options) {
	switch payload.Category {
	case model.CategoryFSWrite:
		if payload.FS == nil {
			return
		}
		workspacePath, _ := canon.ToWorkspacePath(payload.FS.PathResolved, opts.WorkspaceRoot)
		if v, dropped := normalize.FSPath(workspacePath, opts.Norm.FS); !dropped {
			a.fsWrites[v] = struct{}{}
		}
	case model.CategoryFSDelete:
		if payload.FS == nil {
			return
		}
		workspacePath, _ := canon.ToWorkspacePath(payload.FS.PathResolved, opts.WorkspaceRoot)
		if v, dropped := normalize.FSPath(workspacePath, opts.Norm.FS); !dropped {
			a.fsDeletes[v] = struct{}{}
		}
	case model.CategoryFSRead:
		if payload.FS == nil || payload.FS.IsWorkspaceLocal {
			return
		}
		if v, dropped := normalize.FSPath(payload.FS.PathResolved, opts.Norm.FS); !dropped {
			a.fsReadsExt[v] = struct{}{}
		}
	case model.CategoryNetOutbound:
		if payload.Net == nil {
			return
		}
		host := normalize.Host(payload.Net.HostRaw, opts.Norm.Host)
		a.netHosts[host] = struct{}{}
		a.netETLDPlus1[normalize.Host(payload.Net.HostETLDPlus1, opts.Norm.Host)] = struct{}{}
		a.netProtocols[lower(payload.Net.Protocol)] = struct{}{}
		if payload.Net.Port != nil {
			a.netPorts[*payload.Net.Port] = struct{}{}
		}
	case model.CategoryExec:
		if payload.Exec == nil {
			return
		}
		argv := payload.Exec.ArgvNormalized
		if len(argv) == 0 {
			argv = []string{payload.Exec.CommandRaw}
		}
		cmd := argv[0]
		a.execCommands[cmd] = struct{}{}
		reduced := normalize.Argv(argv, normalize.ExecConfig{Mode: opts.ArgvMode, MaskPatterns: opts.Norm.Exec.MaskPatterns})
		if encoded, err := json.Marshal(reduced); err == nil {
			a.execArgv[string(encoded)] = struct{}{}
		}
	case model.CategorySensitive:
		if payload.Sensitive == nil || payload.Sensitive.KeyName == "" {
			return
		}
		a.sensitiveKeys[payload.Sensitive.KeyName] = struct{}{}
	}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedIntKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
