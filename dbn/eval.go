package dbn

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"io/fs"
	"math"
	"strings"

	"github.com/StephaneBunel/bresenham"
	"golang.org/x/image/draw"
)

const (
	// Size is the side of the square canvas in DBN units.
	Size = 100

	MaxScale        = 16
	DefaultMaxDepth = 256
)

// Options configures one evaluation.
type Options struct {
	// FS resolves Load statements. Nil disables Load.
	FS fs.FS

	// Scale enlarges the output with Catmull-Rom interpolation when >= 2.
	Scale int

	// GIF records one animation frame per drawing statement.
	GIF bool

	// MaxFrames caps recorded frames. Zero is unlimited.
	MaxFrames int

	// MaxDepth caps nested Command, Number and Load calls.
	MaxDepth int
}

// Render is the output of a successful evaluation.
type Render struct {
	Image image.Image
	GIF   *gif.GIF
}

// grayPalette holds every 8-bit gray level; the canvas never holds any
// other color.
var grayPalette = func() color.Palette {
	p := make(color.Palette, 256)
	for i := range p {
		p[i] = color.Gray{Y: uint8(i)}
	}
	return p
}()

type evaluator struct {
	ctx   context.Context
	opts  Options
	img   *image.RGBA
	pen   color.Color
	anim  *gif.GIF
	errs  []string
	depth int
	stop  bool
}

// Eval parses and runs a program. Syntax errors abort before anything is
// drawn. Runtime errors are collected and evaluation continues; if any were
// collected the result is an ErrorList.
func Eval(ctx context.Context, src io.Reader, filename string, opts Options) (*Render, error) {
	if opts.Scale > MaxScale {
		return nil, fmt.Errorf("scale %d exceeds maximum %d", opts.Scale, MaxScale)
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	stmts, err := Parse(src, filename)
	if err != nil {
		return nil, err
	}

	e := &evaluator{
		ctx:  ctx,
		opts: opts,
		img:  image.NewRGBA(image.Rect(0, 0, Size, Size)),
		pen:  gray(100),
		anim: &gif.GIF{},
	}
	draw.Draw(e.img, e.img.Bounds(), image.NewUniform(gray(0)), image.Point{}, draw.Src)
	e.frame()

	e.statements(stmts, newEnvironment())
	if len(e.errs) > 0 {
		return nil, ErrorList(e.errs)
	}
	return &Render{Image: e.scaled(), GIF: e.anim}, nil
}

// gray maps a DBN level (0 white .. 100 black) to a color.
func gray(level int) color.Color {
	level = max(0, min(100, level))
	c := uint8((100 - level) * 255 / 100)
	return color.RGBA{R: c, G: c, B: c, A: 255}
}

func (e *evaluator) errorf(at Token, format string, args ...any) {
	e.errs = append(e.errs, at.At()+fmt.Sprintf(format, args...))
}

// statements runs stmts. It reports whether a Value statement ran, and its
// result.
func (e *evaluator) statements(stmts []Statement, env *environment) (int, bool) {
	for _, s := range stmts {
		if e.stop {
			return 0, false
		}
		if err := e.ctx.Err(); err != nil {
			e.errs = append(e.errs, err.Error())
			e.stop = true
			return 0, false
		}
		if v, ok := e.statement(s, env); ok {
			return v, true
		}
	}
	return 0, false
}

func (e *evaluator) statement(s Statement, env *environment) (int, bool) {
	switch s := s.(type) {
	case *PaperStatement:
		draw.Draw(e.img, e.img.Bounds(), image.NewUniform(gray(e.number(s.Value, env))), image.Point{}, draw.Src)
		e.frame()
	case *PenStatement:
		e.pen = gray(e.number(s.Value, env))
	case *LineStatement:
		x1, y1 := e.number(s.X1, env), Size-e.number(s.Y1, env)
		x2, y2 := e.number(s.X2, env), Size-e.number(s.Y2, env)
		if x1, y1, x2, y2, ok := clipLine(x1, y1, x2, y2); ok {
			bresenham.DrawLine(e.img, x1, y1, x2, y2, e.pen)
		}
		e.frame()
	case *SetStatement:
		env.set(s.Name.Literal, e.number(s.Value, env))
	case *DotStatement:
		x, y := e.number(s.X, env), Size-e.number(s.Y, env)
		e.img.Set(x, y, gray(e.number(s.Value, env)))
		e.frame()
	case *CopyStatement:
		x, y := e.number(s.X, env), Size-e.number(s.Y, env)
		r, _, _, _ := e.img.At(x, y).RGBA()
		env.set(s.Name.Literal, int(100-r*100/0xffff))
	case *BlockStatement:
		return e.statements(s.Statements, env)
	case *RepeatStatement:
		from, to := e.number(s.From, env), e.number(s.To, env)
		for i := from; i <= to && !e.stop; i++ {
			env.set(s.Name.Literal, i)
			if v, ok := e.statements(s.Body.Statements, env); ok {
				return v, true
			}
		}
	case *ConditionStatement:
		if e.holds(s, env) {
			return e.statements(s.Body.Statements, env)
		}
	case *DefineCommandStatement:
		env.commands[s.Name.Literal] = s
	case *DefineNumberStatement:
		env.numbers[s.Name.Literal] = s
	case *CallCommandStatement:
		e.callCommand(s, env)
	case *ValueStatement:
		return e.number(s.Result, env), true
	case *LoadStatement:
		e.load(s, env)
	}
	return 0, false
}

// clipLine clips a segment in image coordinates to the canvas so that the
// pixel walk is bounded whatever the operands are. It reports false when the
// segment misses the canvas.
func clipLine(x1, y1, x2, y2 int) (int, int, int, int, bool) {
	inside := func(x, y int) bool { return x >= 0 && x <= Size && y >= 0 && y <= Size }
	if inside(x1, y1) && inside(x2, y2) {
		return x1, y1, x2, y2, true
	}

	fx, fy := float64(x1), float64(y1)
	dx, dy := float64(x2)-fx, float64(y2)-fy
	t0, t1 := 0.0, 1.0
	for _, edge := range [...]struct{ p, q float64 }{
		{-dx, fx}, {dx, Size - fx},
		{-dy, fy}, {dy, Size - fy},
	} {
		if edge.p == 0 {
			if edge.q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := edge.q / edge.p
		if edge.p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}

	round := func(v float64) int { return int(math.Round(v)) }
	return round(fx + t0*dx), round(fy + t0*dy), round(fx + t1*dx), round(fy + t1*dy), true
}

func (e *evaluator) holds(s *ConditionStatement, env *environment) bool {
	l, r := e.number(s.Left, env), e.number(s.Right, env)
	switch s.Keyword.kind {
	case tokSame:
		return l == r
	case tokNotSame:
		return l != r
	case tokSmaller:
		return l < r
	case tokNotSmaller:
		return l >= r
	}
	return false
}

// bind evaluates args in env and binds them to params in a new scope
// enclosing env.
func (e *evaluator) bind(name Token, params []Token, args []Expression, env *environment) (*environment, bool) {
	if len(args) > len(params) {
		e.errorf(name, "Too many arguments for %s: got %d, want %d", name.Literal, len(args), len(params))
		return nil, false
	}
	if e.depth >= e.opts.MaxDepth {
		e.errorf(name, "Call depth exceeded in %s", name.Literal)
		e.stop = true
		return nil, false
	}
	scope := newEnclosedEnvironment(env)
	for i, a := range args {
		scope.set(params[i].Literal, e.number(a, env))
	}
	return scope, true
}

func (e *evaluator) callCommand(s *CallCommandStatement, env *environment) {
	def, ok := env.command(s.Token.Literal)
	if !ok {
		e.errorf(s.Token, "Command not found: %s", s.Token.Literal)
		return
	}
	scope, ok := e.bind(s.Token, def.Parameters, s.Arguments, env)
	if !ok {
		return
	}
	e.depth++
	e.statements(def.Body.Statements, scope)
	e.depth--
}

func (e *evaluator) callNumber(x *CallNumberExpression, env *environment) int {
	def, ok := env.number(x.Token.Literal)
	if !ok {
		e.errorf(x.Token, "Number not found: %s", x.Token.Literal)
		return 0
	}
	scope, ok := e.bind(x.Token, def.Parameters, x.Arguments, env)
	if !ok {
		return 0
	}
	e.depth++
	v, _ := e.statements(def.Body.Statements, scope)
	e.depth--
	return v
}

func (e *evaluator) load(s *LoadStatement, env *environment) {
	if e.opts.FS == nil {
		e.errorf(s.Path, "Load is not available: %s", s.Path.Literal)
		return
	}
	name := strings.TrimPrefix(s.Path.Literal, "./")
	if !fs.ValidPath(name) {
		e.errorf(s.Path, "invalid path: %s", s.Path.Literal)
		return
	}
	if e.depth >= e.opts.MaxDepth {
		e.errorf(s.Path, "Call depth exceeded in %s", s.Path.Literal)
		e.stop = true
		return
	}

	f, err := e.opts.FS.Open(name)
	if err != nil {
		e.errorf(s.Path, "%s", err.Error())
		return
	}
	defer f.Close()

	stmts, err := Parse(f, s.Path.Literal)
	if err != nil {
		e.errs = append(e.errs, err.(ErrorList)...)
		return
	}
	e.depth++
	e.statements(stmts, env)
	e.depth--
}

func (e *evaluator) number(x Expression, env *environment) int {
	switch x := x.(type) {
	case *IntegerExpression:
		return x.Value
	case *IdentifierExpression:
		v, ok := env.get(x.Token.Literal)
		if !ok {
			e.errorf(x.Token, "Identifier not found: %s", x.Token.Literal)
			return 0
		}
		return v
	case *CalculateExpression:
		l, r := e.number(x.Left, env), e.number(x.Right, env)
		switch x.Operator.Literal {
		case "+":
			return l + r
		case "-":
			return l - r
		case "*":
			return l * r
		case "/":
			if r == 0 {
				e.errorf(x.Operator, "Division by zero")
				return 0
			}
			return l / r
		}
	case *CallNumberExpression:
		return e.callNumber(x, env)
	}
	return 0
}

func (e *evaluator) scaled() image.Image {
	if e.opts.Scale < 2 {
		return e.img
	}
	n := Size * e.opts.Scale
	dst := image.NewRGBA(image.Rect(0, 0, n, n))
	draw.CatmullRom.Scale(dst, dst.Bounds(), e.img, e.img.Bounds(), draw.Src, nil)
	return dst
}

// frame appends the current canvas to the animation when recording.
func (e *evaluator) frame() {
	if !e.opts.GIF {
		return
	}
	if e.opts.MaxFrames > 0 && len(e.anim.Image) >= e.opts.MaxFrames {
		return
	}
	src := e.scaled()
	p := image.NewPaletted(src.Bounds(), grayPalette)
	draw.Draw(p, p.Bounds(), src, src.Bounds().Min, draw.Src)
	e.anim.Image = append(e.anim.Image, p)
	e.anim.Delay = append(e.anim.Delay, 0)
}
