// posetool is a CLI utility for inspecting rigs and motions and for
// exercising the pose solver.
package main

import (
	"flag"
	"fmt"
	gomath "math"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/posekit/internal/animator"
	"github.com/Faultbox/posekit/internal/config"
	"github.com/Faultbox/posekit/internal/fixture"
	"github.com/Faultbox/posekit/internal/logger"
	"github.com/Faultbox/posekit/pkg/morph"
	"github.com/Faultbox/posekit/pkg/pose"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "check":
		cmdCheck(args)
	case "pose":
		cmdPose(cfg, args)
	case "play":
		cmdPlay(cfg, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`posetool - skeletal pose solver utility

Usage:
  posetool [global options] <command> [options]

Commands:
  check <doc.yaml>                              Validate a rig/motion document
  pose [-frame F] <doc.yaml>                    Print the pose at frame F
  play [-instances N] [-seconds S] <doc.yaml>   Animate N instances for S seconds

Global options:
  -config <file>      Config file (default ./posekit.yaml)
  -debug              Debug logging
  -workers <n>        Animator worker count
  -fps <n>            Playback frames per second
  -ik-tolerance <d>   Stop IK early within distance d

Examples:
  posetool check arm.yaml
  posetool pose -frame 15 arm.yaml
  posetool -workers 8 play -instances 500 -seconds 5 arm.yaml`)
}

func load(path string) *fixture.Document {
	doc, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return doc
}

func cmdCheck(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool check <doc.yaml>")
		os.Exit(1)
	}

	doc := load(args[0])

	if r := doc.Rig; r != nil {
		fmt.Printf("Rig:      %s\n", r.Name())
		fmt.Printf("Bones:    %d\n", r.BoneCount())
		fmt.Printf("IK:       %d chains\n", len(r.IKChains()))
		fmt.Printf("Morphs:   %d\n", len(r.Morphs()))
		fmt.Printf("Vertices: %d\n", r.VertexCount())

		names := make([]string, 0, r.BoneCount())
		for _, i := range r.Order() {
			names = append(names, r.Bone(i).Name)
		}
		fmt.Printf("Order:    %s\n", strings.Join(names, " > "))
	}
	if m := doc.Motion; m != nil {
		if doc.Rig != nil {
			fmt.Println()
		}
		fmt.Printf("Motion:   %s\n", m.Name)
		fmt.Printf("Frames:   0-%d\n", m.LastFrame())
		fmt.Printf("Tracks:   %d bone, %d morph", len(m.Bones), len(m.Morphs))
		if m.Camera != nil {
			fmt.Print(", camera")
		}
		fmt.Println()
	}
}

// newInstance builds a pose instance for doc's rig with the configured
// solver settings and binds doc's motion.
func newInstance(cfg *config.Config, doc *fixture.Document) (*pose.Instance, error) {
	opts := []pose.Option{
		pose.WithLogger(logger.Named("pose")),
		pose.WithIKPolicy(pose.ParseIKPolicy(cfg.Solver.IKPolicy), cfg.Solver.IKTolerance),
		pose.WithParallelSampling(cfg.Solver.SampleWorkers, cfg.Solver.SampleMinBones),
	}
	if len(doc.Rig.Morphs()) > 0 {
		opts = append(opts, pose.WithMorphBlender(morph.NewBlender(doc.Rig, morph.WithThreshold(cfg.Morph.Threshold))))
	}

	inst := pose.New(doc.Rig, opts...)
	if doc.Motion != nil {
		if err := inst.SetMotion(doc.Motion); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

func requireRig(doc *fixture.Document, path string) {
	if doc.Rig == nil {
		fmt.Fprintf(os.Stderr, "Error: %s has no rig\n", path)
		os.Exit(1)
	}
}

func cmdPose(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("pose", flag.ExitOnError)
	frame := fs.Float64("frame", 0, "Frame time to evaluate")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool pose [-frame F] <doc.yaml>")
		os.Exit(1)
	}

	doc := load(fs.Arg(0))
	requireRig(doc, fs.Arg(0))

	inst, err := newInstance(cfg, doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f := float32(*frame)
	inst.UpdatePose(f)
	inst.UpdateMorphs(f)

	fmt.Printf("Frame %.2f\n\n", f)
	fmt.Printf("  %-16s %-28s %s\n", "bone", "world", "skinning offset")
	for i := 0; i < doc.Rig.BoneCount(); i++ {
		w := inst.WorldPose(i).Translation
		s := inst.SkinningTransform(i).Translation
		fmt.Printf("  %-16s (%7.3f %7.3f %7.3f)   (%7.3f %7.3f %7.3f)\n",
			doc.Rig.Bone(i).Name, w.X, w.Y, w.Z, s.X, s.Y, s.Z)
	}

	if m := doc.Motion; m != nil && m.Camera != nil {
		c := m.Camera.Interpolate(f)
		eye := c.World().Translation()
		fmt.Printf("\nCamera: eye (%7.3f %7.3f %7.3f) fov %.1f deg\n",
			eye.X, eye.Y, eye.Z, c.FOV*180/gomath.Pi)
	}

	stats := inst.Stats()
	fmt.Printf("\nIK iterations: %d, skipped links: %d\n", stats.IKIterations, stats.IKSkippedLinks)

	if b := inst.Morphs(); b != nil {
		fmt.Printf("Morph blends:  %d\n", b.BlendCount())
		for v, p := range b.Positions() {
			fmt.Printf("  v%-4d (%7.3f %7.3f %7.3f)\n", v, p.X, p.Y, p.Z)
		}
	}
}

func cmdPlay(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	instances := fs.Int("instances", 100, "Number of instances")
	seconds := fs.Float64("seconds", 2, "Seconds of animation to run")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: posetool play [-instances N] [-seconds S] <doc.yaml>")
		os.Exit(1)
	}

	doc := load(fs.Arg(0))
	requireRig(doc, fs.Arg(0))

	anim := animator.New(cfg.Animator)
	defer anim.Close()

	for i := 0; i < *instances; i++ {
		inst, err := newInstance(cfg, doc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := anim.Add(fmt.Sprintf("%s-%04d", doc.Rig.Name(), i), inst); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	dt := 1 / cfg.Animator.FPS
	steps := int(float32(*seconds) * cfg.Animator.FPS)
	logger.Info("playing",
		zap.Int("instances", anim.Len()),
		zap.Int("steps", steps),
		zap.Int("workers", cfg.Animator.Workers))

	start := time.Now()
	for i := 0; i < steps; i++ {
		anim.Step(dt)
	}
	elapsed := time.Since(start)

	fmt.Printf("Instances: %d\n", anim.Len())
	fmt.Printf("Steps:     %d\n", steps)
	fmt.Printf("Total:     %v\n", elapsed.Round(time.Microsecond))
	if steps > 0 {
		fmt.Printf("Per step:  %v\n", (elapsed / time.Duration(steps)).Round(time.Microsecond))
	}
}
