package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"interviewassistant/api"
	"interviewassistant/internal/features"
	"interviewassistant/internal/utils/sse"
)

// Session is the part of the interview runner the screen drives.
type Session interface {
	Snapshot() features.Snapshot
	Transcript() []api.ChatEntry
	UploadResume(ctx context.Context, filename string, file io.Reader) error
	SubmitCandidateInfo(ctx context.Context, info api.CandidateInfo) error
	StartInterview(ctx context.Context) error
	UpdateDraft(text string) error
	SubmitAnswer(ctx context.Context, questionIndex int, text string) error
	Continue(ctx context.Context) error
	Restart(ctx context.Context) error
}

type eventMsg sse.Event

type eventsClosedMsg struct{}

// actionMsg reports the outcome of a runner call made off the update loop.
type actionMsg struct {
	name string
	err  error
}

// Model is the candidate screen
type Model struct {
	ctx     context.Context
	session Session
	events  <-chan sse.Event

	snap        features.Snapshot
	transcript  []api.ChatEntry
	answerIndex int

	path     textinput.Model
	answer   textarea.Model
	form     *huh.Form
	info     *api.CandidateInfo
	spinner  spinner.Model
	progress progress.Model
	viewport viewport.Model
	help     help.Model

	busy     bool
	status   string
	lastErr  error
	width    int
	height   int
	quitting bool
	styles   Styles
}

// NewModel builds the screen for a reconciled session. events may be nil.
func NewModel(ctx context.Context, session Session, events <-chan sse.Event) *Model {
	path := textinput.New()
	path.Placeholder = "path/to/resume.pdf"
	path.CharLimit = 512
	path.Focus()

	answer := textarea.New()
	answer.Placeholder = "Type your answer..."
	answer.ShowLineNumbers = false
	answer.SetHeight(6)
	answer.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:         ctx,
		session:     session,
		events:      events,
		answerIndex: -1,
		path:        path,
		answer:      answer,
		spinner:     sp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		viewport:    viewport.New(80, 10),
		help:        help.New(),
		styles:      DefaultStyles(),
	}
	m.refresh()
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick, m.waitForEvent()}
	if m.form != nil {
		cmds = append(cmds, m.form.Init())
	}
	return tea.Batch(cmds...)
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(e)
	}
}

// refresh pulls the runner state into the model. The returned command starts a newly built form.
func (m *Model) refresh() tea.Cmd {
	m.snap = m.session.Snapshot()
	m.transcript = m.session.Transcript()

	if m.snap.Phase == api.PhaseInterview && m.snap.Index != m.answerIndex {
		m.answerIndex = m.snap.Index
		m.answer.Reset()
	}
	var cmd tea.Cmd
	if m.snap.Phase == api.PhaseMissingInfo && m.form == nil {
		m.buildForm()
		cmd = m.form.Init()
	}
	if m.snap.Phase != api.PhaseMissingInfo {
		m.form = nil
	}

	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
	return cmd
}

// buildForm asks for the fields the résumé parse could not find, prefilled with what it did find.
func (m *Model) buildForm() {
	info := m.snap.Candidate
	if m.info != nil {
		info = m.info.Merge(info)
	}
	m.info = &info

	wanted := make(map[string]bool, len(m.snap.MissingFields))
	for _, f := range m.snap.MissingFields {
		wanted[f] = true
	}
	all := len(wanted) == 0

	var fields []huh.Field
	if all || wanted["candidate_name"] {
		fields = append(fields, huh.NewInput().
			Key("candidate_name").
			Title("Full name").
			Value(&m.info.Name).
			Validate(required))
	}
	if all || wanted["candidate_email"] {
		fields = append(fields, huh.NewInput().
			Key("candidate_email").
			Title("Email").
			Value(&m.info.Email).
			Validate(required))
	}
	if all || wanted["candidate_phone"] {
		fields = append(fields, huh.NewInput().
			Key("candidate_phone").
			Title("Phone").
			Value(&m.info.Phone).
			Validate(required))
	}

	m.form = huh.NewForm(
		huh.NewGroup(fields...).
			Title("A few details are missing").
			Description("We could not find these in your resume."),
	)
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("this field is required")
	}
	return nil
}

// run calls the runner without blocking the update loop.
func (m *Model) run(name string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	m.status = ""
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{name: name, err: fn(ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height/3, 5)
		m.answer.SetWidth(max(msg.Width-4, 20))
		m.path.Width = max(msg.Width-8, 20)
		return m, nil

	case eventMsg:
		return m, tea.Batch(m.refresh(), m.waitForEvent())

	case eventsClosedMsg:
		return m, nil

	case actionMsg:
		m.busy = false
		m.lastErr = msg.err
		cmd := m.refresh()
		if msg.err != nil && m.snap.Phase == api.PhaseMissingInfo {
			m.buildForm()
			cmd = m.form.Init()
		}
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		return m.handleKey(msg)
	}

	if m.form != nil {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.snap.Phase == api.PhaseCompleted:
		if key.Matches(msg, keys.Done) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case m.snap.AwaitingContinue:
		return m.handleGateKey(msg)

	case m.snap.Phase == api.PhaseUpload:
		return m.handleUploadKey(msg)

	case m.snap.Phase == api.PhaseMissingInfo:
		return m.updateForm(msg)

	case m.snap.Phase == api.PhaseInterview:
		return m.handleAnswerKey(msg)
	}
	return m, nil
}

func (m *Model) handleGateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Continue):
		if !m.snap.GateOpen {
			m.status = fmt.Sprintf("Continue is available in %ds.", m.snap.GateRemaining)
			return m, nil
		}
		return m, m.run("continue", m.session.Continue)
	case key.Matches(msg, keys.Restart):
		return m, m.run("restart", m.session.Restart)
	}
	return m, nil
}

func (m *Model) handleUploadKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Retry) && m.snap.ResumeAccepted:
		return m, m.run("start", m.session.StartInterview)

	case key.Matches(msg, keys.Upload):
		path := strings.TrimSpace(m.path.Value())
		if path == "" {
			m.status = "Enter the path of your resume."
			return m, nil
		}
		return m, m.run("upload", func(ctx context.Context) error {
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open resume: %w", err)
			}
			defer f.Close()
			return m.session.UploadResume(ctx, filepath.Base(path), f)
		})
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) handleAnswerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Submit) {
		text := m.answer.Value()
		if strings.TrimSpace(text) == "" {
			m.status = "Write an answer before submitting."
			return m, nil
		}
		index := m.answerIndex
		return m, m.run("submit", func(ctx context.Context) error {
			return m.session.SubmitAnswer(ctx, index, text)
		})
	}

	var cmd tea.Cmd
	m.answer, cmd = m.answer.Update(msg)
	if err := m.session.UpdateDraft(m.answer.Value()); err != nil {
		m.lastErr = err
	}
	return m, cmd
}

func (m *Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		info := *m.info
		return m, m.run("candidate-info", func(ctx context.Context) error {
			return m.session.SubmitCandidateInfo(ctx, info)
		})
	}
	return m, cmd
}

// Run shows the screen until the candidate quits.
func Run(ctx context.Context, session Session, events <-chan sse.Event) error {
	p := tea.NewProgram(NewModel(ctx, session, events), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}
