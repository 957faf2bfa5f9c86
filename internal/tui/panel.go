package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lehigh-university-libraries/herobanner/internal/adminapi"
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/slots"
)

// Controller is the slot controller surface the panel drives.
type Controller interface {
	Refresh(ctx context.Context, selectLast bool) error
	SelectSlot(index int) error
	SelectFile(f adminapi.File) error
	CommitNewSlot(ctx context.Context) error
	CommitReplace(ctx context.Context) error
	DeleteActive(ctx context.Context, confirm slots.Confirm) (bool, error)
	BeginNewSlot() bool
	CancelPending()
	DismissError()
	Snapshot() slots.State
	Close() error
}

type modalState string

const (
	modalNone          modalState = ""
	modalOpenFile      modalState = "openFile"
	modalConfirmDelete modalState = "confirmDelete"
)

type opDoneMsg struct {
	op  string
	err error
}

type loggedOutMsg struct{}

type fileLoadedMsg struct {
	file adminapi.File
	err  error
}

// Panel is the hero image admin screen.
type Panel struct {
	ctx       context.Context
	ctrl      Controller
	logout    func(context.Context) error
	open      func(ctx context.Context, src string) (adminapi.File, error)
	modal     modalState
	pathInput textinput.Model
	toDelete  models.ImageRecord
	status    string
	width     int
	quitting  bool
}

// New builds the panel. logout may be nil, which hides the logout key.
func New(ctx context.Context, ctrl Controller, logout func(context.Context) error) *Panel {
	ti := textinput.New()
	ti.Placeholder = "path/to/image.jpg or https://..."
	ti.CharLimit = 512
	ti.Width = 60

	return &Panel{
		ctx:       ctx,
		ctrl:      ctrl,
		logout:    logout,
		open:      adminapi.NewFetcher().Open,
		pathInput: ti,
	}
}

func (p *Panel) Init() tea.Cmd {
	return p.run("refresh", func() error { return p.ctrl.Refresh(p.ctx, false) })
}

func (p *Panel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		return p, nil
	case opDoneMsg:
		p.status = doneStatus(msg)
		return p, nil
	case loggedOutMsg:
		return p, p.quit()
	case fileLoadedMsg:
		if msg.err != nil {
			p.status = msg.err.Error()
			return p, nil
		}
		// validation failures show up in the snapshot's error line
		if err := p.ctrl.SelectFile(msg.file); err == nil {
			p.status = "Selected " + msg.file.Name + ", press enter to save"
		}
		return p, nil
	case tea.KeyMsg:
		switch p.modal {
		case modalOpenFile:
			return p.updateOpenFile(msg)
		case modalConfirmDelete:
			return p.updateConfirmDelete(msg)
		}
		return p.updateMain(msg)
	}
	return p, nil
}

func (p *Panel) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := p.ctrl.Snapshot()

	switch msg.String() {
	case "q", "ctrl+c":
		return p, p.quit()
	case "left", "h":
		if st.ActiveIndex > 0 {
			_ = p.ctrl.SelectSlot(st.ActiveIndex - 1)
		}
	case "right", "l":
		if st.ActiveIndex < st.DisplayCount-1 {
			_ = p.ctrl.SelectSlot(st.ActiveIndex + 1)
		}
	case "n":
		if !p.ctrl.BeginNewSlot() {
			p.status = fmt.Sprintf("All %d slots are in use", st.DisplayCount)
		}
	case "o":
		if st.Uploading {
			return p, nil
		}
		p.modal = modalOpenFile
		p.pathInput.SetValue("")
		return p, p.pathInput.Focus()
	case "enter":
		if st.Pending == nil || st.Uploading {
			return p, nil
		}
		if st.NewSlot {
			return p, p.run("upload", func() error { return p.ctrl.CommitNewSlot(p.ctx) })
		}
		return p, p.run("replace", func() error { return p.ctrl.CommitReplace(p.ctx) })
	case "d":
		img, ok := st.ActiveImage()
		if !ok || !st.CanDelete || st.Loading || st.Uploading {
			return p, nil
		}
		p.toDelete = img
		p.modal = modalConfirmDelete
	case "esc":
		p.ctrl.CancelPending()
	case "r":
		if st.Loading {
			return p, nil
		}
		return p, p.run("refresh", func() error { return p.ctrl.Refresh(p.ctx, false) })
	case "x":
		p.ctrl.DismissError()
		p.status = ""
	case "L":
		if p.logout == nil {
			return p, nil
		}
		return p, func() tea.Msg {
			if err := p.logout(p.ctx); err != nil {
				return opDoneMsg{op: "logout", err: err}
			}
			return loggedOutMsg{}
		}
	}
	return p, nil
}

func (p *Panel) updateOpenFile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		p.modal = modalNone
		p.pathInput.Blur()
		return p, nil
	case "enter":
		src := strings.TrimSpace(p.pathInput.Value())
		p.modal = modalNone
		p.pathInput.Blur()
		if src == "" {
			return p, nil
		}
		p.status = "Loading " + src
		return p, func() tea.Msg {
			f, err := p.open(p.ctx, src)
			return fileLoadedMsg{file: f, err: err}
		}
	}

	var cmd tea.Cmd
	p.pathInput, cmd = p.pathInput.Update(msg)
	return p, cmd
}

func (p *Panel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		p.modal = modalNone
		record := p.toDelete
		return p, p.run("delete", func() error {
			_, err := p.ctrl.DeleteActive(p.ctx, func(r models.ImageRecord) bool {
				// the slot may have moved under us while the dialog was open
				return r.ID == record.ID
			})
			return err
		})
	case "n", "N", "esc":
		p.modal = modalNone
		p.status = "Delete cancelled"
	}
	return p, nil
}

func (p *Panel) run(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn()}
	}
}

func (p *Panel) quit() tea.Cmd {
	p.quitting = true
	_ = p.ctrl.Close()
	return tea.Quit
}

func doneStatus(msg opDoneMsg) string {
	switch {
	case errors.Is(msg.err, slots.ErrBusy):
		return "Still working on the previous request"
	case msg.err != nil:
		// the controller already surfaced it on the error line
		return ""
	case msg.op == "refresh":
		return ""
	case msg.op == "upload":
		return "Image uploaded"
	case msg.op == "replace":
		return "Image replaced"
	case msg.op == "delete":
		return "Image deleted"
	default:
		return ""
	}
}
