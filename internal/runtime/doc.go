// Package runtime runs external processes on the host.
//
// Every blocking call in the pipeline (native build tool steps and the
// consumer binary) goes through [Exec]. Output is streamed to the caller's
// writers unmodified so the tool's own diagnostics stay visible. A non-zero
// exit code is reported in [ExecResult] and is not an error; only a failure
// to start the process ([ErrLaunch]) or an interrupted wait
// ([ErrInterrupted]) is.
//
// Example usage:
//
//	res, err := runtime.Exec(ctx, runtime.Command{
//	    Args:   []string{"cmake", "--build", "build", "--target", "check"},
//	    Stdout: os.Stdout,
//	    Stderr: os.Stderr,
//	})
//	if err != nil {
//	    return err
//	}
//	if res.ExitCode != 0 {
//	    // caller decides
//	}
package runtime
