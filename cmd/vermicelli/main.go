//go:generate glslc ../../shaders/simple_shader.vert -o ../../shaders/simple_shader.vert.spv
//go:generate glslc ../../shaders/simple_shader.frag -o ../../shaders/simple_shader.frag.spv
//go:generate glslc ../../shaders/point_light.vert -o ../../shaders/point_light.vert.spv
//go:generate glslc ../../shaders/point_light.frag -o ../../shaders/point_light.frag.spv

// Command vermicelli renders a small lit scene. Run it from the repository
// root after compiling the shaders with go generate.
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/vermicelli-engine/vermicelli/render"
	"github.com/vermicelli-engine/vermicelli/vulkan"
)

func main() {
	var opts Options
	var presentMode string
	validation := vulkan.DefaultConfig().EnableValidation

	flag.IntVar(&opts.Width, "width", 800, "initial window width")
	flag.IntVar(&opts.Height, "height", 600, "initial window height")
	flag.StringVar(&opts.Title, "title", "Vermicelli", "window title")
	flag.BoolVar(&opts.Verbose, "verbose", false, "log renderer lifecycle events")
	flag.StringVar(&presentMode, "present", "fifo", "preferred present mode: fifo, mailbox, immediate or fifo-relaxed")
	flag.StringVar(&opts.ShaderDir, "shaders", "shaders", "directory of compiled SPIR-V shaders")
	flag.StringVar(&opts.ModelDir, "models", "models", "directory of OBJ models")
	flag.BoolVar(&opts.Validation, "validation", validation, "enable the Vulkan validation layers")
	flag.Parse()

	mode, err := render.ParsePresentMode(presentMode)
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
	opts.PresentMode = mode

	if opts.Verbose {
		render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	app := &Application{opts: opts}

	err = app.Run()
	if err != nil {
		log.Fatalf("%+v\n", err)
	}
}
