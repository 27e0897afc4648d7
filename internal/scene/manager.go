// Package scene implements the Scene/Command layer: the
// Scene aggregate root held in an ordered list, atomic replace-by-id
// mutation, a Command pattern with snapshot-based undo/redo, and an
// observer pattern notified after every mutation.
package scene

import (
	"github.com/timelineaudio/engine/internal/model"
)

// Observer is notified after every successful scene-list mutation.
type Observer interface {
	OnScenesChanged(scenes []model.Scene)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(scenes []model.Scene)

func (f ObserverFunc) OnScenesChanged(scenes []model.Scene) { f(scenes) }

// Command is a value object describing one reversible scene mutation.
// Execute receives the manager so it can read/replace its scene list; there
// is no per-command Undo -- the manager undoes generically via a snapshot.
type Command interface {
	Execute(m *Manager) error
}

// Manager owns the ordered scene list and the undo/redo command stacks.
// Mutation is always "atomic replace-by-id inside an ordered scene list;
// observers notified at end of each mutation".
type Manager struct {
	scenes []model.Scene

	undoStack []snapshot
	redoStack []snapshot

	observers []Observer
}

type snapshot struct {
	scenes []model.Scene
}

// NewManager creates a Manager over an initial scene list.
func NewManager(initial []model.Scene) *Manager {
	return &Manager{scenes: cloneScenes(initial)}
}

// Scenes returns a snapshot of the current scene list.
func (m *Manager) Scenes() []model.Scene {
	return cloneScenes(m.scenes)
}

// SceneByID returns the scene with the given id.
func (m *Manager) SceneByID(id model.SceneID) (model.Scene, bool) {
	for _, s := range m.scenes {
		if s.ID == id {
			return s, true
		}
	}
	return model.Scene{}, false
}

// Subscribe registers an observer, returning an unsubscribe function.
func (m *Manager) Subscribe(o Observer) func() {
	m.observers = append(m.observers, o)
	idx := len(m.observers) - 1
	return func() {
		m.observers[idx] = nil
	}
}

func (m *Manager) notify() {
	// Snapshot-iterate: observers registered or removed mid-notify don't
	// perturb this pass.
	observers := append([]Observer{}, m.observers...)
	scenes := m.Scenes()
	for _, o := range observers {
		if o != nil {
			o.OnScenesChanged(scenes)
		}
	}
}

// AddScene appends a new scene to the list and notifies observers. It does
// not interact with the undo/redo stacks -- adding a scene that wasn't
// already part of the editing session isn't itself a reversible edit.
func (m *Manager) AddScene(s model.Scene) {
	m.scenes = append(m.scenes, s.Clone())
	m.notify()
}

// replaceScene performs an atomic replace-by-id: the scene with matching id
// is swapped wholesale; unmatched ids are a no-op.
func (m *Manager) replaceScene(updated model.Scene) {
	for i := range m.scenes {
		if m.scenes[i].ID == updated.ID {
			m.scenes[i] = updated
			return
		}
	}
}

// Execute runs cmd, pushing a pre-state snapshot onto the undo stack and
// clearing the redo stack. If cmd fails, the scene
// list is left untouched and nothing is pushed.
func (m *Manager) Execute(cmd Command) error {
	pre := snapshot{scenes: cloneScenes(m.scenes)}
	if err := cmd.Execute(m); err != nil {
		return err
	}
	m.undoStack = append(m.undoStack, pre)
	m.redoStack = nil
	m.notify()
	return nil
}

// Undo restores the scene list to its state immediately before the most
// recent Execute, pushing the pre-undo state onto the redo stack. A no-op
// when there is nothing to undo.
func (m *Manager) Undo() bool {
	if len(m.undoStack) == 0 {
		return false
	}
	n := len(m.undoStack) - 1
	pre := m.undoStack[n]
	m.undoStack = m.undoStack[:n]

	m.redoStack = append(m.redoStack, snapshot{scenes: cloneScenes(m.scenes)})
	m.scenes = cloneScenes(pre.scenes)
	m.notify()
	return true
}

// Redo re-applies the most recently undone state. A no-op when there is
// nothing to redo.
func (m *Manager) Redo() bool {
	if len(m.redoStack) == 0 {
		return false
	}
	n := len(m.redoStack) - 1
	post := m.redoStack[n]
	m.redoStack = m.redoStack[:n]

	m.undoStack = append(m.undoStack, snapshot{scenes: cloneScenes(m.scenes)})
	m.scenes = cloneScenes(post.scenes)
	m.notify()
	return true
}

func cloneScenes(scenes []model.Scene) []model.Scene {
	out := make([]model.Scene, len(scenes))
	for i, s := range scenes {
		out[i] = s.Clone()
	}
	return out
}
