package scenario

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Blank lines collapse into the EOL token that precedes them. Every value is
// a whitespace-delimited Word; numbers are converted after parsing, so "2N"
// stays one token.
var rawLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "EOL", Pattern: `[\r\n]\s*`},
	{Name: "Whitespace", Pattern: `[ \t\f\v]+`},
	{Name: "Word", Pattern: `[^\s]+`},
})

type rawScenario struct {
	Grid   *rawGrid    `parser:"EOL? @@"`
	Robots []*rawRobot `parser:"( EOL @@ )* EOL?"`
}

type rawGrid struct {
	Pos  lexer.Position
	MaxX string `parser:"@Word"`
	MaxY string `parser:"@Word"`
}

type rawRobot struct {
	Pos          lexer.Position
	X            string           `parser:"@Word"`
	Y            string           `parser:"@Word"`
	Orientation  string           `parser:"@Word"`
	Instructions *rawInstructions `parser:"EOL @@"`
}

type rawInstructions struct {
	Pos   lexer.Position
	Value string `parser:"@Word"`
}

var rawParser = participle.MustBuild[rawScenario](
	participle.Lexer(rawLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseRaw parses the line based scenario format
func ParseRaw(raw string) (Command, error) {
	if strings.TrimSpace(raw) == "" {
		return Command{}, fmt.Errorf("%w: empty scenario input", ErrInvalidInput)
	}
	lines := nonBlankLines(raw)
	if err := checkLineStructure(lines); err != nil {
		return Command{}, err
	}

	ast, err := rawParser.ParseString("scenario", raw)
	if err != nil {
		return Command{}, describeSyntaxError(err, lines)
	}

	var cmd Command
	if cmd.Grid.MaxX, err = parseCoordinate(ast.Grid.MaxX, "maxX", ast.Grid.Pos.Line); err != nil {
		return Command{}, err
	}
	if cmd.Grid.MaxY, err = parseCoordinate(ast.Grid.MaxY, "maxY", ast.Grid.Pos.Line); err != nil {
		return Command{}, err
	}

	for _, r := range ast.Robots {
		prog, err := r.toProgram()
		if err != nil {
			return Command{}, err
		}
		cmd.Programs = append(cmd.Programs, prog)
	}
	return cmd, nil
}

func (r *rawRobot) toProgram() (RobotProgram, error) {
	line := r.Pos.Line
	x, err := parseCoordinate(r.X, "startX", line)
	if err != nil {
		return RobotProgram{}, err
	}
	y, err := parseCoordinate(r.Y, "startY", line)
	if err != nil {
		return RobotProgram{}, err
	}

	o := unicode.ToUpper([]rune(r.Orientation)[0])
	if !strings.ContainsRune("NESW", o) {
		return RobotProgram{}, fmt.Errorf("%w: line %d: invalid orientation: %s", ErrInvalidInput, line, r.Orientation)
	}

	ins := strings.ToUpper(r.Instructions.Value)
	if !validInstructions(ins) {
		return RobotProgram{}, fmt.Errorf("%w: line %d: invalid instruction string: %s", ErrInvalidInput, r.Instructions.Pos.Line, ins)
	}

	return RobotProgram{StartX: x, StartY: y, Orientation: o, Instructions: ins}, nil
}

func parseCoordinate(s, name string, line int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: invalid integer for %s: %s", ErrInvalidInput, line, name, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: line %d: %s must be non-negative, got %d", ErrInvalidInput, line, name, v)
	}
	return v, nil
}

// nonBlankLines returns the 1-based numbers of the lines holding content
func nonBlankLines(raw string) []int {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	var lines []int
	for i, l := range strings.Split(raw, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, i+1)
		}
	}
	return lines
}

// checkLineStructure reports missing lines before the grammar gets a chance
// to produce a token level error.
func checkLineStructure(lines []int) error {
	if len(lines) < 3 {
		return fmt.Errorf("%w: incomplete scenario", ErrInvalidInput)
	}
	if (len(lines)-1)%2 != 0 {
		return fmt.Errorf("%w: missing instruction line for robot at line %d", ErrInvalidInput, lines[len(lines)-1])
	}
	return nil
}

func describeSyntaxError(err error, lines []int) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	what := "invalid grid line"
	for i, n := range lines {
		if n != perr.Position().Line || i == 0 {
			continue
		}
		if i%2 == 1 {
			what = "invalid robot position line"
		} else {
			what = "invalid instruction line"
		}
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, what, perr.Error())
}
