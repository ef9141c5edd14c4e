package patch

import (
	"os/exec"

	"github.com/agentci/agentci/internal/canon"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/normalize"
)

// Run is the facade replacement for (*exec.Cmd).Run: it delegates first and
// emits an exec effect only when the command exits without error (§4.4's
// "emit on success" rule applies to synchronous wrappers too).
func (p *Patcher) Run(cmd *exec.Cmd) error {
	if err := cmd.Run(); err != nil {
		return err
	}
	p.recordExec(cmd)
	return nil
}

// Output is the facade replacement for (*exec.Cmd).Output.
func (p *Patcher) Output(cmd *exec.Cmd) ([]byte, error) {
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}
	p.recordExec(cmd)
	return out, nil
}

// CombinedOutput is the facade replacement for (*exec.Cmd).CombinedOutput.
func (p *Patcher) CombinedOutput(cmd *exec.Cmd) ([]byte, error) {
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, err
	}
	p.recordExec(cmd)
	return out, nil
}

func (p *Patcher) recordExec(cmd *exec.Cmd) {
	commandRaw := cmd.Path
	argv := cmd.Args
	if len(argv) == 0 {
		argv = []string{commandRaw}
	}
	masked := normalize.Argv(argv, normalize.ExecConfig{Mode: normalize.ArgvModeFull})

	p.emit(model.CategoryExec, model.EffectPayload{
		Exec: &model.ExecEffectData{
			CommandRaw:     commandRaw,
			ArgvNormalized: append([]string{canon.CommandBasename(commandRaw)}, masked[1:]...),
		},
	})
}
