package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cruciblehq/cruxpkg/internal/build"
	"github.com/cruciblehq/cruxpkg/internal/consumer"
)

var (
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	skipStyle   = lipgloss.NewStyle().Faint(true)
	stageStyle  = lipgloss.NewStyle().Width(11)
	statusStyle = lipgloss.NewStyle().Width(8)
)

type status int

const (
	statusOK status = iota
	statusFailed
	statusSkipped
)

func (s status) String() string {
	switch s {
	case statusOK:
		return okStyle.Render("ok")
	case statusFailed:
		return failStyle.Render("failed")
	default:
		return skipStyle.Render("skipped")
	}
}

type row struct {
	stage  string
	status status
	detail string
}

// Stages in pipeline order. Stages after the first failure are skipped.
var stages = []string{"recipe", "configure", "compile", "verify", "stage", "consumer"}

// Outcome of each stage of one run, for the terminal summary.
type report struct {
	rows []row
}

func (r *report) add(stage string, err error, detail string) {
	if err != nil {
		r.rows = append(r.rows, row{stage, statusFailed, err.Error()})
		return
	}
	r.rows = append(r.rows, row{stage, statusOK, detail})
}

func (r *report) recipe(d build.Descriptor, err error) {
	r.add("recipe", err, d.Name+" "+d.Version)
}

// Records the orchestrator stages. build.Run reports one error, so the
// failing stage is recovered from its class.
func (r *report) orchestrator(res *build.Result, err error) {
	failed := failedStage(err)
	for i, stage := range stages[1:5] {
		switch {
		case err != nil && i == failed:
			r.add(stage, err, "")
		case err != nil && i > failed:
			return
		case stage == "stage" && res != nil:
			r.add(stage, nil, fmt.Sprintf("%s (%d files)", res.Output, len(res.Files)))
		default:
			r.add(stage, nil, "")
		}
	}
}

func (r *report) consumer(res *consumer.Result, err error) {
	detail := ""
	if res != nil {
		detail = fmt.Sprintf("exit status %d", res.ExitCode)
	}
	r.add("consumer", err, detail)
}

// Index into stages[1:5] of the orchestrator stage that failed.
func failedStage(err error) int {
	switch {
	case errors.Is(err, build.ErrConfiguration):
		return 0
	case errors.Is(err, build.ErrVerification):
		return 2
	case errors.As(err, new(*build.TargetError)):
		return 2
	case errors.Is(err, build.ErrBuild):
		return 1
	default:
		return 3
	}
}

// Renders one line per pipeline stage, marking unreached stages skipped.
func (r *report) render() string {
	lines := make([]string, 0, len(stages))
	for i, stage := range stages {
		rw := row{stage: stage, status: statusSkipped}
		if i < len(r.rows) {
			rw = r.rows[i]
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			stageStyle.Render(rw.stage),
			statusStyle.Render(rw.status.String()),
			rw.detail,
		))
	}
	return strings.Join(lines, "\n") + "\n"
}
