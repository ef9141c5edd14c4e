package patch

import (
	"os"

	"github.com/agentci/agentci/internal/canon"
	"github.com/agentci/agentci/internal/model"
)

func (p *Patcher) describe(rawPath string) canon.ResolvedPath {
	return canon.ResolvePathBestEffort(rawPath, p.workspaceRoot)
}

func fsPayload(resolved canon.ResolvedPath) model.EffectPayload {
	return model.EffectPayload{
		FS: &model.FSEffectData{
			PathRequested:    resolved.RequestedAbs,
			PathResolved:     resolved.ResolvedAbs,
			IsWorkspaceLocal: resolved.IsWorkspaceLocal,
		},
	}
}

// WriteFile is the facade replacement for os.WriteFile: it writes the file
// first, and only on success emits an fs_write effect.
func (p *Patcher) WriteFile(name string, data []byte, perm os.FileMode) error {
	if err := os.WriteFile(name, data, perm); err != nil {
		return err
	}
	p.recordWrite(name)
	return nil
}

// MkdirAll is the facade replacement for os.MkdirAll.
func (p *Patcher) MkdirAll(path string, perm os.FileMode) error {
	if err := os.MkdirAll(path, perm); err != nil {
		return err
	}
	p.recordWrite(path)
	return nil
}

// Truncate is the facade replacement for os.Truncate.
func (p *Patcher) Truncate(name string, size int64) error {
	if err := os.Truncate(name, size); err != nil {
		return err
	}
	p.recordWrite(name)
	return nil
}

// AppendFile opens name for append, writes data, and closes it, emitting an
// fs_write effect only once the whole sequence succeeds.
func (p *Patcher) AppendFile(name string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	_, werr := f.Write(data)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	if cerr != nil {
		return cerr
	}
	p.recordWrite(name)
	return nil
}

func (p *Patcher) recordWrite(rawPath string) {
	resolved := p.describe(rawPath)
	if p.skipOwnIO(resolved.ResolvedAbs) {
		return
	}
	p.emit(model.CategoryFSWrite, fsPayload(resolved))
}

// ReadFile is the facade replacement for os.ReadFile. On success it emits
// an fs_read effect and, if the resolved path matches a sensitive file
// glob, an additional sensitive_access effect.
func (p *Patcher) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}

	resolved := p.describe(name)
	if p.skipOwnIO(resolved.ResolvedAbs) {
		return data, nil
	}
	p.emit(model.CategoryFSRead, fsPayload(resolved))

	if matchesAnyGlob(p.sensitive.BlockFileGlobs, resolved.ResolvedAbs) {
		p.emit(model.CategorySensitive, model.EffectPayload{
			Sensitive: &model.SensitiveEffectData{
				Type:    "file_read",
				KeyName: resolved.ResolvedAbs,
			},
		})
	}
	return data, nil
}

// Remove is the facade replacement for os.Remove.
func (p *Patcher) Remove(name string) error {
	if err := os.Remove(name); err != nil {
		return err
	}
	p.recordDelete(name)
	return nil
}

// RemoveAll is the facade replacement for os.RemoveAll.
func (p *Patcher) RemoveAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	p.recordDelete(path)
	return nil
}

func (p *Patcher) recordDelete(rawPath string) {
	resolved := p.describe(rawPath)
	if p.skipOwnIO(resolved.ResolvedAbs) {
		return
	}
	p.emit(model.CategoryFSDelete, fsPayload(resolved))
}

// Rename is the facade replacement for os.Rename. Per the emission rules, a
// successful rename emits a delete of the source followed by a write of the
// destination; on failure neither event is emitted.
func (p *Patcher) Rename(oldpath, newpath string) error {
	if err := os.Rename(oldpath, newpath); err != nil {
		return err
	}
	p.recordDelete(oldpath)
	p.recordWrite(newpath)
	return nil
}
