package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"interviewassistant/api"
)

func (m *Model) View() string {
	if m.quitting {
		return "Goodbye.\n"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch {
	case m.snap.Phase == api.PhaseCompleted:
		b.WriteString(m.renderCompleted())
	case m.snap.AwaitingContinue:
		b.WriteString(m.renderGate())
	case m.snap.Phase == api.PhaseUpload:
		b.WriteString(m.renderUpload())
	case m.snap.Phase == api.PhaseMissingInfo:
		if m.form != nil {
			b.WriteString(m.form.View())
		}
	case m.snap.Phase == api.PhaseInterview:
		b.WriteString(m.renderQuestion())
	}
	b.WriteString("\n\n")

	b.WriteString(m.styles.Border.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.busy {
		b.WriteString(m.spinner.View() + " Working...\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.Warning.Render(m.status) + "\n")
	}
	if m.lastErr != nil {
		b.WriteString(m.styles.Error.Render("Error: ") + m.lastErr.Error() + "\n")
	}

	b.WriteString(m.styles.Help.Render(m.help.ShortHelpView(m.bindings())))
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.styles.Title.Render("AI Interview")
	if m.snap.Info != nil && m.snap.Info.PositionTitle != "" {
		title += m.styles.Subtitle.Render(" · " + m.snap.Info.PositionTitle)
	}
	if m.snap.Candidate.Name != "" {
		title += "\n" + m.styles.Muted.Render("Candidate: "+m.snap.Candidate.Name)
	}
	if m.snap.FinalAttempt && m.snap.Phase != api.PhaseCompleted {
		title += "\n" + m.styles.Warning.Render("Final attempt: do not reload or close this session.")
	}
	return title
}

func (m *Model) renderUpload() string {
	var b strings.Builder
	b.WriteString("Upload your resume (PDF or DOCX) to begin.\n\n")
	b.WriteString(m.path.View())
	if m.snap.ResumeAccepted {
		b.WriteString("\n\n" + m.styles.Muted.Render("Your resume was received. Press ctrl+r to retry generating questions."))
	}
	return b.String()
}

func (m *Model) renderGate() string {
	var b strings.Builder
	b.WriteString(m.styles.Question.Render("You have an interview in progress."))
	b.WriteString("\n\n")
	if m.snap.GateOpen {
		b.WriteString("Press c to continue where you left off, or r to start over.")
	} else {
		b.WriteString(fmt.Sprintf("You can continue in %ds. Press r to start over.", m.snap.GateRemaining))
	}
	return b.String()
}

func (m *Model) renderQuestion() string {
	q, ok := m.snap.CurrentQuestion()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.progress.ViewAs(float64(m.snap.ProgressPercent()) / 100))
	b.WriteString(fmt.Sprintf("  %d%%\n\n", m.snap.ProgressPercent()))

	b.WriteString(m.styles.Question.Render(fmt.Sprintf("Question %d of %d", q.Number, len(m.snap.Questions))))
	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %s · %ds", q.Difficulty, q.TimeLimit)))
	b.WriteString("   ")
	b.WriteString(m.renderClock())
	b.WriteString("\n\n")
	b.WriteString(q.Text)
	b.WriteString("\n\n")
	b.WriteString(m.answer.View())
	return b.String()
}

func (m *Model) renderClock() string {
	text := fmt.Sprintf("%d:%02d", m.snap.Remaining/60, m.snap.Remaining%60)
	if m.snap.Remaining <= 10 {
		return m.styles.ClockLow.Render(text)
	}
	return m.styles.Clock.Render(text)
}

func (m *Model) renderCompleted() string {
	var b strings.Builder
	b.WriteString(m.styles.Success.Render("Interview complete"))
	b.WriteString("\n")
	if m.snap.TotalScore != nil {
		b.WriteString(fmt.Sprintf("\nTotal score: %.1f", *m.snap.TotalScore))
	}
	if m.snap.Summary != "" {
		b.WriteString("\n" + m.snap.Summary)
	}
	return b.String()
}

func (m *Model) renderTranscript() string {
	lines := make([]string, 0, len(m.transcript))
	for _, e := range m.transcript {
		stamp := e.CreatedAt.Local().Format("15:04:05")
		lines = append(lines, m.styles.Muted.Render(stamp)+" "+m.styles.entryStyle(e.Kind).Render(e.Text))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) bindings() []key.Binding {
	switch {
	case m.snap.Phase == api.PhaseCompleted:
		return []key.Binding{keys.Done}
	case m.snap.AwaitingContinue:
		return []key.Binding{keys.Continue, keys.Restart, keys.Quit}
	case m.snap.Phase == api.PhaseUpload && m.snap.ResumeAccepted:
		return []key.Binding{keys.Upload, keys.Retry, keys.Quit}
	case m.snap.Phase == api.PhaseUpload:
		return []key.Binding{keys.Upload, keys.Quit}
	case m.snap.Phase == api.PhaseInterview:
		return []key.Binding{keys.Submit, keys.Quit}
	}
	return []key.Binding{keys.Quit}
}
