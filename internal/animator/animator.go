// Package animator steps many pose instances per frame on a shared worker
// pool. Each instance is updated by exactly one task per step, so
// instances never share mutable state.
package animator

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/Faultbox/posekit/internal/config"
	"github.com/Faultbox/posekit/internal/logger"
	"github.com/Faultbox/posekit/pkg/motion"
	"github.com/Faultbox/posekit/pkg/pose"
)

// ErrDuplicateName is returned by Add when the name is already taken.
var ErrDuplicateName = errors.New("animator: duplicate instance name")

// workerIdleTimeout is how long an idle pool worker is kept around.
const workerIdleTimeout = time.Second

type entry struct {
	name     string
	inst     *pose.Instance
	motion   *motion.Motion // motion the playback length was taken from
	playback Playback
	elapsed  float32
	frame    float32
}

// Option configures an Animator.
type Option func(*Animator)

// WithLogger replaces the default "animator" child of the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Animator) {
		a.log = l
	}
}

// Animator owns a set of named instances and advances them together.
type Animator struct {
	cfg  config.AnimatorConfig
	pool worker.DynamicWorkerPool
	log  *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	steps   int
}

// New creates an animator and starts its worker pool.
func New(cfg config.AnimatorConfig, opts ...Option) *Animator {
	a := &Animator{
		cfg:     cfg,
		pool:    worker.NewDynamicWorkerPool(cfg.Workers, cfg.QueueSize, workerIdleTimeout),
		log:     logger.Named("animator"),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add registers inst under name, starting playback at frame 0 with the
// configured FPS and loop mode.
func (a *Animator) Add(name string, inst *pose.Instance) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	m := inst.Motion()
	length := motionLength(m)
	a.entries[name] = &entry{
		name:     name,
		inst:     inst,
		motion:   m,
		playback: Playback{FPS: a.cfg.FPS, Loop: a.cfg.Loop, Length: length},
	}
	i, _ := slices.BinarySearch(a.order, name)
	a.order = slices.Insert(a.order, i, name)

	a.log.Debug("instance added", zap.String("name", name), zap.Float32("length", length))
	return nil
}

// Remove unregisters an instance. It reports whether name was present.
func (a *Animator) Remove(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.entries[name]; !ok {
		return false
	}
	delete(a.entries, name)
	if i, ok := slices.BinarySearch(a.order, name); ok {
		a.order = slices.Delete(a.order, i, i+1)
	}
	return true
}

// SetPlayback replaces an instance's playback settings and restarts it.
func (a *Animator) SetPlayback(name string, p Playback) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.entries[name]
	if !ok {
		return false
	}
	e.playback = p
	e.motion = e.inst.Motion()
	e.elapsed = 0
	return true
}

func motionLength(m *motion.Motion) float32 {
	if m == nil {
		return 0
	}
	return float32(m.LastFrame())
}

// Len returns the number of registered instances.
func (a *Animator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Frame returns the frame time an instance was last posed at.
func (a *Animator) Frame(name string) (float32, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	e, ok := a.entries[name]
	if !ok {
		return 0, false
	}
	return e.frame, true
}

// Steps returns how many times Step has run.
func (a *Animator) Steps() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.steps
}

// Step advances every instance by dt seconds and poses it at its new
// frame time. It returns once every instance has been updated. An instance
// whose motion was replaced since the last step restarts its clock with the
// new motion's length.
func (a *Animator) Step(dt float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()

	var wg sync.WaitGroup
	for id, name := range a.order {
		e := a.entries[name]
		if m := e.inst.Motion(); m != e.motion {
			e.motion = m
			e.playback.Length = motionLength(m)
			e.elapsed = 0
			a.log.Debug("motion changed", zap.String("name", name), zap.Float32("length", e.playback.Length))
		}
		e.elapsed += dt
		e.frame = e.playback.Frame(e.elapsed)
		e.inst.Advance(dt)

		wg.Add(1)
		a.pool.SubmitTask(worker.Task{
			ID:      id,
			Payload: name,
			Do: func() (any, error) {
				defer wg.Done()
				defer a.recoverTask(e.name)

				e.inst.UpdatePose(e.frame)
				e.inst.UpdateMorphs(e.frame)
				return nil, nil
			},
		})
	}
	wg.Wait()
	a.steps++

	elapsed := time.Since(start)
	fields := []zap.Field{
		zap.Int("step", a.steps),
		zap.Int("instances", len(a.order)),
		zap.Duration("elapsed", elapsed),
	}
	if a.cfg.FrameBudget > 0 && elapsed > a.cfg.FrameBudget {
		a.log.Warn("step over frame budget", append(fields, zap.Duration("budget", a.cfg.FrameBudget))...)
		return
	}
	a.log.Debug("step", fields...)
}

func (a *Animator) recoverTask(name string) {
	if r := recover(); r != nil {
		a.log.Error("instance update panicked", zap.String("name", name), zap.Any("panic", r))
	}
}

// Close stops the worker pool. The animator must not be stepped afterwards.
func (a *Animator) Close() {
	a.pool.Stop()
}
