package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
)

// Manager owns the sandboxed VM that scripted attacks run in.
//
// Manager is safe for concurrent use after LoadDir returns. The VM is
// single-threaded, so every call into Lua holds mu.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	logger    *zap.Logger
	attacks   []*ScriptedAttack
	loading   map[attack.Type]bool
}

// NewManager creates a Manager with a fresh sandbox.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a Manager with no attacks defined.
func NewManager(logger *zap.Logger, instLimit int) *Manager {
	m := &Manager{
		instLimit: instLimit,
		logger:    logger,
		loading:   map[attack.Type]bool{},
	}
	m.L = NewSandboxedState(instLimit)
	m.RegisterModules(m.L)
	return m
}

// LoadDir executes every *.lua file in dir in lexicographic order.
//
// Precondition: dir must be a readable directory.
// Postcondition: every engine.register_attack call made by the scripts is
// recorded; the first Lua error aborts loading.
func (m *Manager) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, path := range files {
		cancel := resetBudget(m.L, m.instLimit)
		err := m.L.DoFile(path)
		cancel()
		if err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
		m.logger.Debug("attack script loaded", zap.String("path", path))
	}
	return nil
}

// LoadString executes src as a script chunk.
func (m *Manager) LoadString(src string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancel := resetBudget(m.L, m.instLimit)
	defer cancel()
	if err := m.L.DoString(src); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	return nil
}

// define is called from Lua with mu held.
func (m *Manager) define(a *ScriptedAttack) error {
	if m.loading[a.tag] {
		return fmt.Errorf("attack type %q defined twice", a.tag)
	}
	m.loading[a.tag] = true
	m.attacks = append(m.attacks, a)
	m.logger.Info("scripted attack defined",
		zap.String("type", string(a.tag)),
		zap.Int("max_attackers", a.attackers.max),
		zap.Int("max_defenders", a.defenders.max),
	)
	return nil
}

// Attacks returns the scripted attacks in definition order.
func (m *Manager) Attacks() []attack.Attack {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]attack.Attack, len(m.attacks))
	for i, a := range m.attacks {
		out[i] = a
	}
	return out
}

// RegisterInto adds every scripted attack to r.
//
// Postcondition: returns the registry error on a tag collision, such as a
// script redefining a built-in type.
func (m *Manager) RegisterInto(r *attack.Registry) error {
	for _, a := range m.Attacks() {
		if err := r.Register(a); err != nil {
			return fmt.Errorf("scripting: %w", err)
		}
	}
	return nil
}

// Close releases the VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.L.Close()
}

// call runs fn(args...) and returns its first result as a boolean. Runtime
// errors are logged at Warn level and treated as false.
func (m *Manager) call(tag attack.Type, fn *lua.LFunction, args ...lua.LValue) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cancel := resetBudget(m.L, m.instLimit)
	defer cancel()
	if err := m.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("attack", string(tag)),
			zap.Error(err),
		)
		return false
	}
	ret := m.L.Get(-1)
	m.L.Pop(1)
	return lua.LVAsBool(ret)
}
