package compiler

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/femto/pkg/domain"
	"github.com/aretw0/femto/pkg/geometry"
)

//go:embed headers/*.txt
var headers embed.FS

// Compiler buffers the instructions of a single PGM program.
// It is not safe for concurrent use.
type Compiler struct {
	params    Params
	transform geometry.Matrix3
	warp      *geometry.Surface
	logger    *slog.Logger

	instructions []string
	shutterOn    bool
	numFor       int
	numRepeat    int
	loaded       map[string]struct{}
	closed       bool
	// err is set when instructions are added after Close.
	err error

	// frames[0] is the program body, one frame is pushed per open loop.
	frames []frame
	pos    geometry.Vec3
	hasPos bool
	moves  int
}

// frame accumulates execution costs of a loop body.
type frame struct {
	count   int
	travel  float64
	dwell   float64
	length  float64
	shutter float64
	// toggles counts ON and OFF switches.
	toggles int
}

func (f *frame) add(o frame) {
	n := float64(o.count)
	f.travel += n * o.travel
	f.dwell += n * o.dwell
	f.length += n * o.length
	f.shutter += n * o.shutter
	f.toggles += o.count * o.toggles
}

// New validates the parameters and returns an empty compiler.
func New(params Params, opts ...Option) (*Compiler, error) {
	if err := params.Normalize(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	c := &Compiler{
		params: params,
		loaded: make(map[string]struct{}),
		frames: []frame{{count: 1}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.transform = geometry.Homothety(1, 1, 1/params.Neff()).Mul(geometry.RotationZ(geometry.Radians(params.RotationAngle)))
	if params.RotationAngle != 0 {
		c.logger.Warn("software rotation enabled, angles are in degrees", "rotation_angle", params.RotationAngle)
	}
	return c, nil
}

// Params returns the normalized parameters.
func (c *Compiler) Params() Params {
	return c.params
}

// ShutterOn reports whether the shutter is currently open.
func (c *Compiler) ShutterOn() bool {
	return c.shutterOn
}

// emit appends lines to an open program. Lines added after Close are
// dropped and reported by the next Close.
func (c *Compiler) emit(lines ...string) {
	if c.checkOpen() != nil {
		return
	}
	c.instructions = append(c.instructions, lines...)
}

func (c *Compiler) checkOpen() error {
	if c.closed {
		c.err = domain.ErrClosed
		return c.err
	}
	return nil
}

func (c *Compiler) top() *frame {
	return &c.frames[len(c.frames)-1]
}

// Header appends the header of the fabrication line.
// With a non-zero AerotechAngle the G84 hardware rotation is enabled as well.
func (c *Compiler) Header() {
	name := "headers/capable.txt"
	if c.params.Line == domain.LineFire {
		name = "headers/fire.txt"
	}
	data, err := headers.ReadFile(name)
	if err != nil {
		// Embedded at build time.
		panic(err)
	}
	c.emit(string(data))

	if c.params.AerotechAngle != 0 {
		c.logger.Warn("hardware rotation enabled with G84, angles are in degrees", "aerotech_angle", c.params.AerotechAngle)
		c.emit("G84 X Y\n")
		c.Rotation(c.params.AerotechAngle)
	}
}

// Dvar declares controller variables.
func (c *Compiler) Dvar(names ...string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("dvar requires at least one variable")
	}
	vars := make([]string, len(names))
	for i, n := range names {
		vars[i] = variable(n)
	}
	c.emit(fmt.Sprintf("DVAR %s\n", strings.Join(vars, " ")))
	return nil
}

// Comment appends a single-line comment.
func (c *Compiler) Comment(text string) {
	c.emit(fmt.Sprintf("; %s\n", text))
}

// Assign appends "$name = expr".
func (c *Compiler) Assign(name, expr string) {
	c.emit(fmt.Sprintf("%s = %s\n", variable(name), expr))
}

// Shutter switches the shutter, emitting PSOCONTROL only when the state changes.
func (c *Compiler) Shutter(state domain.ShutterState) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	switch state {
	case domain.ShutterOpen:
		if !c.shutterOn {
			c.shutterOn = true
			c.emit("PSOCONTROL X ON\n")
			f := c.top()
			f.toggles++
			f.shutter += c.params.ShutterTime()
		}
	case domain.ShutterClosed:
		if c.shutterOn {
			c.shutterOn = false
			c.emit("PSOCONTROL X OFF\n")
			c.top().toggles++
		}
	default:
		return fmt.Errorf("%w: %d", domain.ErrInvalidState, state)
	}
	return nil
}

// Dwell appends a pause of the given seconds followed by a blank line.
func (c *Compiler) Dwell(pause float64) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if pause < 0 {
		return fmt.Errorf("dwell of %g s: pause must not be negative", pause)
	}
	c.emit(fmt.Sprintf("DWELL %s\n\n", seconds(pause)))
	c.top().dwell += pause
	return nil
}

// SetHome presets the current position to the given coordinates (G92).
func (c *Compiler) SetHome(t Target) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if c.shutterOn {
		return fmt.Errorf("set home: %w", domain.ErrShutterOpen)
	}
	if t.empty() {
		return errors.New("set home: at least one axis is required")
	}
	args, err := c.formatArgs(t.X, t.Y, t.Z, nil)
	if err != nil {
		return err
	}
	c.emit(fmt.Sprintf("G92 %s\n", args))
	c.hasPos = false
	return nil
}

// Homing moves to the origin with the shutter closed.
func (c *Compiler) Homing() error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	c.Comment("HOMING")
	return c.MoveTo(At(0, 0, 0), 0)
}

// MoveTo moves to the target with the shutter closed and waits LongPause.
// A non-positive speed selects SpeedPos.
func (c *Compiler) MoveTo(t Target, speed float64) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if t.empty() {
		return errors.New("move to: at least one axis is required")
	}
	if speed <= 0 {
		speed = c.params.SpeedPos
	}
	args, err := c.formatArgs(t.X, t.Y, t.Z, &speed)
	if err != nil {
		return err
	}
	if err := c.Shutter(domain.ShutterClosed); err != nil {
		return err
	}
	c.emit(fmt.Sprintf("LINEAR %s\n", args))
	c.track(t, speed)
	return c.Dwell(c.params.LongPause)
}

// LinearExpr appends a LINEAR instruction with controller expressions as axes.
func (c *Compiler) LinearExpr(e Expr) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	args := e.String()
	if args == "" {
		return errors.New("linear: at least one axis is required")
	}
	c.emit(fmt.Sprintf("LINEAR %s\n", args))
	c.moves++
	c.hasPos = false
	return nil
}

// For opens a FOR loop over $name from 0 to n-1.
func (c *Compiler) For(name string, n int) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("for %s: iterations must be at least 1, given %d", variable(name), n)
	}
	c.emit(fmt.Sprintf("FOR %s = 0 TO %d\n", variable(name), n-1))
	c.numFor++
	c.frames = append(c.frames, frame{count: n})
	return nil
}

// EndFor closes the FOR loop over $name.
func (c *Compiler) EndFor(name string) {
	if c.checkOpen() != nil {
		return
	}
	c.emit(fmt.Sprintf("NEXT %s\n\n", variable(name)))
	c.numFor--
	c.pop()
}

// Repeat opens a REPEAT block of n iterations.
func (c *Compiler) Repeat(n int) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if n < 1 {
		return fmt.Errorf("repeat: iterations must be at least 1, given %d", n)
	}
	c.emit(fmt.Sprintf("REPEAT %d\n", n))
	c.numRepeat++
	c.frames = append(c.frames, frame{count: n})
	return nil
}

// EndRepeat closes the innermost REPEAT block.
func (c *Compiler) EndRepeat() {
	if c.checkOpen() != nil {
		return
	}
	c.emit("ENDREPEAT\n\n")
	c.numRepeat--
	c.pop()
}

func (c *Compiler) pop() {
	if len(c.frames) < 2 {
		return
	}
	last := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	c.top().add(last)
}

// Tic displays the start time on the controller message panel.
func (c *Compiler) Tic() {
	c.emit("MSGDISPLAY 1, \"START #TS\"\n\n")
}

// Toc displays the end time on the controller message panel.
func (c *Compiler) Toc() {
	c.emit(
		"MSGDISPLAY 1, \"END   #TS\"\n",
		"MSGDISPLAY 1, \"---------------------\"\n",
		"MSGDISPLAY 1, \" \"\n\n",
	)
}

// Prompt stops the program on an OK message box until the operator answers.
// The answer is stored in $name.
func (c *Compiler) Prompt(name, message string) error {
	if err := c.checkOpen(); err != nil {
		return err
	}
	if message == "" || strings.ContainsAny(message, "\"\r\n") {
		return fmt.Errorf("prompt: invalid message %q", message)
	}
	c.emit(fmt.Sprintf("%s = MSGBOX(DF_MSGBOX_OKONLY, \"%s\")\n", variable(name), message))
	return nil
}

// Rotation sets the G84 hardware rotation angle in degrees.
func (c *Compiler) Rotation(angle float64) {
	c.emit(fmt.Sprintf("G84 X Y F%s\n\n", c.number(geometry.NormalizeDegrees(angle))))
}

// ClearRotation disables the G84 hardware rotation.
func (c *Compiler) ClearRotation() {
	c.emit("G84 X Y\n")
}

// Instructions returns a copy of the buffered instructions.
func (c *Compiler) Instructions() []string {
	out := make([]string, len(c.instructions))
	copy(out, c.instructions)
	return out
}

// String returns the current program text.
func (c *Compiler) String() string {
	return strings.Join(c.instructions, "")
}

// Close checks loop balance and terminates the program: the shutter is
// closed, the stage optionally homed and the hardware rotation cleared.
// Calling Close again is a no-op unless instructions were added in
// between, in which case it returns domain.ErrClosed.
func (c *Compiler) Close() error {
	if c.closed {
		return c.err
	}
	if err := balance(c.numRepeat, "ENDREPEAT", "REPEAT"); err != nil {
		return err
	}
	if err := balance(c.numFor, "NEXT", "FOR"); err != nil {
		return err
	}
	if err := c.Shutter(domain.ShutterClosed); err != nil {
		return err
	}
	if c.params.Home {
		if err := c.Homing(); err != nil {
			return err
		}
	}
	if c.params.AerotechAngle != 0 {
		c.ClearRotation()
	}
	c.closed = true
	return nil
}

func balance(n int, closing, opening string) error {
	if n == 0 {
		return nil
	}
	kw := closing
	if n < 0 {
		kw, n = opening, -n
	}
	plural := "s"
	if n == 1 {
		plural = ""
	}
	return fmt.Errorf("missing %d %s instruction%s: %w", n, kw, plural, domain.ErrUnbalancedLoop)
}
