package femto_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/femto"
	"github.com/aretw0/femto/pkg/adapters/memory"
)

// ExampleEngine_CompileJob compiles a job held in memory.
func ExampleEngine_CompileJob() {
	loader := memory.NewLoader(map[string]string{
		"straight": `
gcode:
  filename: straight
objects:
  - type: waveguide
    ops:
      - op: start
        at: [0, 0, 0.035]
      - op: linear
        d: [10, 0, 0]
      - op: end
`,
	})

	eng, err := femto.New("", femto.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	prog, err := eng.CompileJob(context.Background(), "straight")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(prog.Filename)
	fmt.Println(strings.Count(prog.Text, "PSOCONTROL X ON"))
	// Output:
	// straight.pgm
	// 1
}
