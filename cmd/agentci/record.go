package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/agentci/agentci/internal/integrity"
	"github.com/agentci/agentci/internal/model"
	"github.com/agentci/agentci/internal/policy"
	"github.com/agentci/agentci/internal/policyconfig"
	"github.com/agentci/agentci/internal/recorderrt"
	"github.com/agentci/agentci/internal/runstore"
	"github.com/agentci/agentci/internal/signature"
)

var recordEnforce bool

var recordCmd = &cobra.Command{
	Use:   "record -- <command> [args...]",
	Short: "Run a command under the recorder, then summarize and evaluate its effects",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRecord,
}

func init() {
	recordCmd.Flags().BoolVar(&recordEnforce, "enforce", false, "block disallowed effects as they happen, instead of only reporting them afterward")
	rootCmd.AddCommand(recordCmd)
}

// runRecord is the launcher (§6): it generates a run ID, creates the run's
// directory, and injects the recorder's env-var contract into the child's
// environment before exec'ing it with inherited stdio. Once the child
// exits, it summarizes whatever trace the child produced, evaluates it
// against policy, and exits with whichever of the child's exit code or the
// verdict's exit code is non-zero.
func runRecord(cmd *cobra.Command, args []string) error {
	root := workspaceRoot()
	store := newStore(root)

	runID, err := runstore.NewRunID()
	if err != nil {
		return fmt.Errorf("generate run id: %w", err)
	}
	if err := store.EnsureRunDir(runID); err != nil {
		return fmt.Errorf("create run directory: %w", err)
	}

	configPath := flagConfig
	if configPath == "" {
		configPath = store.ConfigPath()
	}

	child := exec.Command(args[0], args[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Env = append(os.Environ(),
		recorderrt.EnvRunDir+"="+store.RunDir(runID),
		recorderrt.EnvRunID+"="+runID,
		recorderrt.EnvWorkspaceRoot+"="+root,
		recorderrt.EnvConfigPath+"="+configPath,
		recorderrt.EnvVersion+"="+toolVersion,
	)
	if recordEnforce {
		child.Env = append(child.Env, recorderrt.EnvEnforce+"=1")
	}

	runErr := child.Run()
	childExitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			childExitCode = exitErr.ExitCode()
		} else {
			return fmt.Errorf("launch %s: %w", args[0], runErr)
		}
	}

	cfg := loadConfig(root)
	verdict, err := summarizeAndEvaluate(store, runID, cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "agentci: warning: %v\n", err)
	}

	if isJSON() {
		if err := printJSON(cmd, map[string]any{
			"run_id":          runID,
			"child_exit_code": childExitCode,
			"verdict":         verdict,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "run %s: child exit=%d verdict=%s\n", runID, childExitCode, verdict)
	}

	code := childExitCode
	if verdict.ExitCode() > code {
		code = verdict.ExitCode()
	}
	if code != 0 {
		return exitWithCode(code, "run %s finished with exit code %d", runID, code)
	}
	return nil
}

// summarizeAndEvaluate builds a signature from the run's trace (tolerant of
// a missing or empty trace, if the child never instrumented itself),
// checksums the trace and signature, evaluates policy, and writes
// findings.json. It returns PASS when the trace is missing entirely so a
// record of an uninstrumented command still exits cleanly.
func summarizeAndEvaluate(store *runstore.Store, runID string, cfg policyconfig.Config) (model.Verdict, error) {
	tracePath := store.TracePath(runID)
	if !runstore.Exists(tracePath) {
		return model.VerdictPass, nil
	}

	sig, err := signature.BuildFromFile(tracePath, signatureOptions(cfg))
	if err != nil {
		return model.VerdictPass, fmt.Errorf("build signature: %w", err)
	}
	if err := runstore.WriteJSON(store.SignaturePath(runID), sig); err != nil {
		return model.VerdictPass, fmt.Errorf("write signature.json: %w", err)
	}

	secret, haveSecret, err := integrity.LoadSecret(store.SecretPath())
	if err != nil {
		return model.VerdictPass, fmt.Errorf("load secret: %w", err)
	}
	if err := integrity.WriteChecksum(tracePath, store.TraceChecksumPath(runID), runID, secret, haveSecret, false); err != nil {
		return model.VerdictPass, fmt.Errorf("checksum trace: %w", err)
	}
	if err := integrity.WriteChecksum(store.SignaturePath(runID), store.SignatureChecksumPath(runID), runID, secret, haveSecret, true); err != nil {
		return model.VerdictPass, fmt.Errorf("checksum signature: %w", err)
	}

	findings := policy.Evaluate(sig, cfg)
	if err := runstore.WriteJSON(store.FindingsPath(runID), findings); err != nil {
		return model.VerdictPass, fmt.Errorf("write findings.json: %w", err)
	}

	return model.ComposeVerdict(findings), nil
}
